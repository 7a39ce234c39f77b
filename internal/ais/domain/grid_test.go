package ais

import "testing"

func TestCellOfRoundsToTwoDecimals(t *testing.T) {
	cases := []struct {
		lat, lon         float64
		wantLat, wantLon float64
	}{
		{lat: 18.944, lon: 72.836, wantLat: 18.94, wantLon: 72.84},
		{lat: 1.005, lon: -1.005, wantLat: 1.01, wantLon: -1.01},
		{lat: -33.8651, lon: 151.2099, wantLat: -33.87, wantLon: 151.21},
		{lat: 0, lon: 0, wantLat: 0, wantLon: 0},
		{lat: 89.999, lon: -179.999, wantLat: 90, wantLon: -180},
	}
	for _, tc := range cases {
		lat, lon := CellOf(tc.lat, tc.lon)
		if lat != tc.wantLat || lon != tc.wantLon {
			t.Fatalf("CellOf(%v,%v)=(%v,%v) want (%v,%v)", tc.lat, tc.lon, lat, lon, tc.wantLat, tc.wantLon)
		}
	}
}

func TestCellOfMergesNearbyPoints(t *testing.T) {
	lat1, lon1 := CellOf(51.5012, -0.1419)
	lat2, lon2 := CellOf(51.4951, -0.1351)
	if lat1 != lat2 || lon1 != lon2 {
		t.Fatalf("expected same cell, got (%v,%v) and (%v,%v)", lat1, lon1, lat2, lon2)
	}
}
