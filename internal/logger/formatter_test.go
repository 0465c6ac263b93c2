package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func writeLine(t *testing.T, fields map[string]interface{}) string {
	t.Helper()

	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshaling test fields: %v", err)
	}

	var buf bytes.Buffer
	f := NewFixedFormatWriter(&buf)
	n, err := f.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Fatalf("Write returned %d, want original length %d", n, len(data))
	}
	return buf.String()
}

func TestFixedFormat_BasicLine(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:00.5Z",
		"level":     "info",
		"component": "main",
		"message":   "Configuration loaded",
		"services":  4,
		"config":    "config/nssm_exec.toml",
	})

	want := "2026-02-26 12:00:00.500 [INF] [main           ] Configuration loaded config=config/nssm_exec.toml services=4\n"
	if line != want {
		t.Errorf("line = %q, want %q", line, want)
	}
}

func TestFixedFormat_ServiceOpTag(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:01.2Z",
		"level":     "error",
		"component": "executor",
		"service":   "metrics-agent",
		"op":        "remove",
		"message":   "Step failed",
		"exit_code": 5,
	})

	if !strings.Contains(line, "[ERR] [executor       ] metrics-agent/remove: Step failed exit_code=5") {
		t.Errorf("line %q missing the service/op tag", line)
	}
}

func TestFixedFormat_ServiceWithoutOp(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:01Z",
		"level":     "info",
		"component": "summary",
		"service":   "metrics-agent",
		"message":   "[OK]",
	})

	if !strings.Contains(line, "metrics-agent: [OK]") {
		t.Errorf("line %q missing the service tag", line)
	}
}

func TestFixedFormat_CallerIsDropped(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:01Z",
		"level":     "info",
		"component": "main",
		"message":   "hello",
		"caller":    "executor/executor.go:42",
	})

	if strings.Contains(line, "caller") || strings.Contains(line, "executor.go") {
		t.Errorf("line %q still carries the caller field", line)
	}
}

func TestFixedFormat_NoExtrasEndsCleanly(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:00Z",
		"level":     "info",
		"component": "main",
		"message":   "Batch finished",
	})

	if !strings.HasSuffix(line, "Batch finished\n") {
		t.Errorf("line %q has trailing junk after the message", line)
	}
}

func TestFixedFormat_TruncatesLongComponent(t *testing.T) {
	line := writeLine(t, map[string]interface{}{
		"time":      "2026-02-26T12:00:01Z",
		"level":     "warn",
		"component": "a-very-long-component-name",
		"message":   "hello",
	})

	if !strings.Contains(line, "[a-very-long-com] hello") {
		t.Errorf("line %q does not truncate the component to the column width", line)
	}
}

func TestFixedFormat_PassesThroughNonJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFixedFormatWriter(&buf)

	raw := []byte("plain text, not a log line\n")
	n, err := f.Write(raw)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(raw) {
		t.Errorf("Write returned %d, want %d", n, len(raw))
	}
	if buf.String() != string(raw) {
		t.Errorf("output = %q, want pass-through %q", buf.String(), raw)
	}
}

func TestLevelTag(t *testing.T) {
	cases := map[string]string{
		"trace":    "TRC",
		"debug":    "DBG",
		"info":     "INF",
		"warn":     "WRN",
		"error":    "ERR",
		"fatal":    "FTL",
		"panic":    "PNC",
		"whatever": "???",
		"":         "???",
	}
	for level, want := range cases {
		if got := levelTag(level); got != want {
			t.Errorf("levelTag(%q) = %q, want %q", level, got, want)
		}
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fraction UTC", "2026-02-26T12:00:00Z", "2026-02-26 12:00:00.000"},
		{"long fraction", "2026-02-26T12:00:00.123456Z", "2026-02-26 12:00:00.123"},
		{"short fraction", "2026-02-26T12:00:00.5Z", "2026-02-26 12:00:00.500"},
		{"positive zone", "2026-02-26T12:00:00+09:00", "2026-02-26 12:00:00.000"},
		{"negative zone", "2026-02-26T12:00:00.25-05:00", "2026-02-26 12:00:00.250"},
		{"empty", "", strings.Repeat(" ", 23)},
	}

	for _, tc := range cases {
		got := normalizeTimestamp(tc.in)
		if got != tc.want {
			t.Errorf("%s: normalizeTimestamp(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
		if len(got) != 23 {
			t.Errorf("%s: length = %d, want 23", tc.name, len(got))
		}
	}
}

func TestFormatExtra_SortedAndQuoted(t *testing.T) {
	got := formatExtra(map[string]interface{}{
		"z_field": "last",
		"a_field": "first",
		"cause":   "remove svc-b confirm",
	})
	want := `a_field=first cause="remove svc-b confirm" z_field=last`
	if got != want {
		t.Errorf("formatExtra = %q, want %q", got, want)
	}
}

func TestFormatExtra_Empty(t *testing.T) {
	if got := formatExtra(map[string]interface{}{}); got != "" {
		t.Errorf("formatExtra on no fields = %q, want empty", got)
	}
}
