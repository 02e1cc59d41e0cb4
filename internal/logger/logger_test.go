package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	Logger{Level: "warn", Format: "json"}.SetupWriter(&buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("parcel", "123").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" || entry["parcel"] != "123" || entry["message"] != "shown" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetupWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	Logger{Level: "loud", Format: "json"}.SetupWriter(&buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("GlobalLevel() = %v, want info", zerolog.GlobalLevel())
	}
}
