package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteStartupErrorFile records err in a fixed location so a failure
// during startup stays visible even when the logger never initialized
// and the console output is gone. Any subcommand may write it, so the
// invoking command line is recorded alongside the error. Only the most
// recent error is kept; the file is overwritten on each call.
func WriteStartupErrorFile(logDir string, err error) {
	if mkErr := os.MkdirAll(logDir, 0755); mkErr != nil {
		return
	}

	path := filepath.Join(logDir, "startup-error.log")
	f, ferr := os.Create(path)
	if ferr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] STARTUP ERROR\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(f, "command: %s\n", strings.Join(os.Args, " "))
	fmt.Fprintf(f, "%v\n", err)
}
