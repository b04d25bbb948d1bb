package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONOutput(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	log := New(Options{Level: "info", Service: "user-api", Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if event["message"] != "visible" || event["service"] != "user-api" || event["k"] != "v" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if _, ok := event["time"]; !ok {
		t.Fatalf("timestamp missing: %+v", event)
	}
}

func TestNew_Pretty(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	log := New(Options{Level: "debug", Pretty: true, Output: &buf})
	log.Debug().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}
