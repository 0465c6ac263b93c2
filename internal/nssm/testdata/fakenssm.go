// fakenssm.go is a test helper that stands in for the nssm executable.
// It is compiled and run by invoker tests.
//
// Behavior is controlled by env vars:
//
//	FAKE_NSSM_STATUS - state the status command prints (default
//	                   SERVICE_STOPPED); "absent" makes status fail
//	                   the way it does for an uninstalled service
//	FAKE_NSSM_FAIL   - space-separated sub-commands that exit non-zero
//	FAKE_NSSM_OUTPUT - text printed by failing sub-commands
//	FAKE_NSSM_EXIT   - exit code for failing sub-commands (default 2)
//	FAKE_NSSM_UTF16  - "1" emits output as UTF-16LE with a BOM, the
//	                   way the real manager writes to a pipe
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"
)

func emit(s string) {
	if os.Getenv("FAKE_NSSM_UTF16") == "1" {
		u := utf16.Encode([]rune(s))
		b := []byte{0xFF, 0xFE}
		for _, r := range u {
			b = append(b, byte(r), byte(r>>8))
		}
		os.Stdout.Write(b)
		return
	}
	fmt.Println(s)
}

func main() {
	if len(os.Args) < 2 {
		emit("usage: fakenssm <command> [<args>...]")
		os.Exit(1)
	}
	sub := os.Args[1]
	name := ""
	if len(os.Args) > 2 {
		name = os.Args[2]
	}

	for _, failing := range strings.Fields(os.Getenv("FAKE_NSSM_FAIL")) {
		if sub != failing {
			continue
		}
		out := os.Getenv("FAKE_NSSM_OUTPUT")
		if out == "" {
			out = "simulated failure"
		}
		emit(out)
		code := 2
		if v := os.Getenv("FAKE_NSSM_EXIT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				code = n
			}
		}
		os.Exit(code)
	}

	switch sub {
	case "status":
		status := os.Getenv("FAKE_NSSM_STATUS")
		if status == "" {
			status = "SERVICE_STOPPED"
		}
		if status == "absent" {
			emit("Can't open service!")
			os.Exit(3)
		}
		emit(status)
	case "install":
		emit(fmt.Sprintf("Service %q installed successfully!", name))
	case "remove":
		emit(fmt.Sprintf("Service %q removed successfully!", name))
	case "set", "stop", "start":
		// The real manager prints little on success here.
	default:
		emit(fmt.Sprintf("unknown command %q", sub))
		os.Exit(1)
	}
}
