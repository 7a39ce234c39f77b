package ais

import "errors"

var (
	// ErrNilStore is returned when a component is built without a store.
	ErrNilStore = errors.New("ais: nil store")
	// ErrInvalidMMSI is returned when a vessel identity cannot be parsed.
	ErrInvalidMMSI = errors.New("ais: invalid mmsi")
	// ErrLoaderClosed is returned when a finished loader is used again.
	ErrLoaderClosed = errors.New("ais: loader closed")
)
