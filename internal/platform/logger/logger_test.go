package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

func TestTextFormat_SortedAndQuoted(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Options{App: "certctl", Now: fixedNow}).
		With(map[string]any{"component": "certnumber"})

	log.Info("certificate emitted", map[string]any{"number": "0100125", "manual": false, "": "dropped"})

	want := `app=certctl component=certnumber level=info manual=false msg="certificate emitted" number=0100125 ts=2025-03-10T09:00:00Z` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected line\nwant %q\ngot  %q", want, got)
	}
}

func TestJSONFormat_ErrorsAsText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, Options{Format: FormatJSON, Now: fixedNow})

	log.Error("save failed", map[string]any{"error": errors.New("db down")})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if entry["error"] != "db down" {
		t.Fatalf("expected error rendered as text, got %#v", entry["error"])
	}
	if entry["level"] != "error" || entry["msg"] != "save failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLevelFilterAndWithIsolation(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithWriter(&buf, Options{Level: Warn, Now: fixedNow})
	child := root.With(map[string]any{"kind": "fdu"})

	child.Info("hidden", nil)
	root.Warn("shown", nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info must be filtered at warn level: %q", out)
	}
	if strings.Contains(out, "kind=") {
		t.Fatalf("With must not leak fields into the parent: %q", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
}

func TestParse(t *testing.T) {
	levels := map[string]Level{"DEBUG": Debug, "warning": Warn, "error": Error, "": Info, "loud": Info}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("logfmt") != FormatText {
		t.Fatalf("unexpected ParseFormat result")
	}
}
