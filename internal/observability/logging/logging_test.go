package logging

import "testing"

func TestNewAcceptsKnownSettings(t *testing.T) {
	for _, cfg := range []Config{{}, {Level: "debug", Format: "console"}, {Level: "WARN", Format: "json"}} {
		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v): %v", cfg, err)
		}
		if logger == nil {
			t.Fatalf("New(%+v) returned nil logger", cfg)
		}
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatalf("expected format error")
	}
}
