package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// FixedFormatWriter converts zerolog's JSON lines into fixed-width
// columns for the log file. Step-scoped lines carry service and op
// fields; those are promoted into the message so one service's history
// can be followed by eye:
//
//	2026-02-26 12:00:00.000 [INF] [main           ] Configuration loaded services=4
//	2026-02-26 12:00:01.200 [ERR] [executor       ] metrics-agent/remove: Step failed exit_code=5
type FixedFormatWriter struct {
	w io.Writer
}

// NewFixedFormatWriter creates a new FixedFormatWriter that wraps the given writer.
func NewFixedFormatWriter(w io.Writer) *FixedFormatWriter {
	return &FixedFormatWriter{w: w}
}

const componentWidth = 15

func levelTag(level string) string {
	switch level {
	case "trace":
		return "TRC"
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	case "panic":
		return "PNC"
	default:
		return "???"
	}
}

func (f *FixedFormatWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		// Not a zerolog JSON line, pass through untouched.
		return f.w.Write(p)
	}

	ts := normalizeTimestamp(takeString(fields, "time"))
	lvl := levelTag(takeString(fields, "level"))
	comp := takeString(fields, "component")
	msg := takeString(fields, "message")
	delete(fields, "caller")

	if len(comp) > componentWidth {
		comp = comp[:componentWidth]
	}

	if service := takeString(fields, "service"); service != "" {
		tag := service
		if op, ok := fields["op"].(string); ok {
			tag += "/" + op
			delete(fields, "op")
		}
		msg = tag + ": " + msg
	}

	var line strings.Builder
	fmt.Fprintf(&line, "%s [%s] [%-*s] %s", ts, lvl, componentWidth, comp, msg)
	if extra := formatExtra(fields); extra != "" {
		line.WriteByte(' ')
		line.WriteString(extra)
	}
	line.WriteByte('\n')

	_, err := io.WriteString(f.w, line.String())
	// Report the original length, zerolog checks for short writes.
	return len(p), err
}

// takeString removes key from fields and returns its string form.
func takeString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	delete(fields, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// normalizeTimestamp rewrites an RFC3339 timestamp as
// "2006-01-02 15:04:05.000", padded to a fixed 23 characters.
func normalizeTimestamp(ts string) string {
	if ts == "" {
		return strings.Repeat(" ", 23)
	}

	out := strings.Replace(ts, "T", " ", 1)

	// Drop the zone suffix (Z, +09:00, ...). Search after the date part
	// so its dashes are not mistaken for a negative offset.
	if len(out) > 11 {
		if idx := strings.IndexAny(out[11:], "Z+-"); idx >= 0 {
			out = out[:11+idx]
		}
	}

	// Fractional seconds, exactly three digits.
	if dot := strings.LastIndex(out, "."); dot == -1 {
		out += ".000"
	} else {
		frac := out[dot+1:]
		switch {
		case len(frac) > 3:
			out = out[:dot+4]
		case len(frac) < 3:
			out += strings.Repeat("0", 3-len(frac))
		}
	}

	if len(out) < 23 {
		out += strings.Repeat(" ", 23-len(out))
	} else if len(out) > 23 {
		out = out[:23]
	}
	return out
}

// formatExtra renders the remaining fields as sorted key=value pairs.
func formatExtra(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprintf("%v", fields[k])
		if strings.ContainsAny(s, " \t\n\"") {
			parts = append(parts, fmt.Sprintf("%s=%q", k, s))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", k, s))
		}
	}
	return strings.Join(parts, " ")
}
