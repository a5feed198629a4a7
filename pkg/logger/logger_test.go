package logx

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesServiceField(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Config{Service: "gateway"})
	logger.Info().Str("agent", "X").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry["service"] != "gateway" {
		t.Fatalf("service = %v", entry["service"])
	}
	if entry["agent"] != "X" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()

	var quiet, verbose bytes.Buffer
	quietLogger := New(&quiet, Config{})
	quietLogger.Debug().Msg("hidden")
	verboseLogger := New(&verbose, Config{Debug: true})
	verboseLogger.Debug().Msg("shown")

	if quiet.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", quiet.String())
	}
	if verbose.Len() == 0 {
		t.Fatal("expected debug line when Debug is set")
	}
}
