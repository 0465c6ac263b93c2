package nssm

import (
	"strings"
	"unicode/utf16"
)

// decodeOutput converts raw manager output into a plain string. The
// manager writes UTF-16LE when attached to a pipe; plain ASCII passes
// through unchanged.
func decodeOutput(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE {
		return strings.TrimSpace(decodeUTF16LE(b[2:]))
	}

	// No BOM. Dropping NUL bytes collapses unmarked UTF-16LE of ASCII
	// text to its ASCII form and leaves ordinary output untouched.
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != 0 {
			out = append(out, c)
		}
	}
	return strings.TrimSpace(string(out))
}

func decodeUTF16LE(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return string(utf16.Decode(u))
}
