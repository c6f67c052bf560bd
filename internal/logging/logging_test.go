package logging

import "testing"

func TestNewRejectsBadLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	if _, err := New("production"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewDevelopment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	log, err := New("development")
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatal("debug should be enabled")
	}
}
