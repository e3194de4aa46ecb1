package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// HandleCrash must be deferred first in main. It writes a crash report for an
// unrecovered panic on the main goroutine and exits with status 2.
func HandleCrash() {
	r := recover()
	if r == nil {
		return
	}

	dir := "logs"
	if execPath, err := os.Executable(); err == nil {
		dir = filepath.Join(filepath.Dir(execPath), "logs")
	}

	path, err := WriteCrashFile(dir, r, string(debug.Stack()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: %v\npanic: %v\n%s\n", err, r, debug.Stack())
	} else {
		fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\nPanic: %v\n", path, r)
	}
	os.Exit(2)
}

// WriteCrashFile writes a crash report into dir and returns its path
func WriteCrashFile(dir string, panicVal interface{}, stackTrace string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create crash directory: %w", err)
	}

	now := time.Now()
	crashPath := filepath.Join(dir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))

	var report bytes.Buffer
	report.WriteString("=== VALUESCREEN CRASH REPORT ===\n")
	report.WriteString(fmt.Sprintf("Time: %s\n", now.Format(time.RFC3339)))
	report.WriteString(fmt.Sprintf("Version: %s\n\n", GetFullVersion()))

	report.WriteString("=== PANIC VALUE ===\n")
	report.WriteString(fmt.Sprintf("%v\n\n", panicVal))

	report.WriteString("=== STACK TRACE ===\n")
	report.WriteString(stackTrace)
	report.WriteString("\n")

	report.WriteString("=== SYSTEM INFO ===\n")
	report.WriteString(fmt.Sprintf("NumGoroutine: %d\n", runtime.NumGoroutine()))
	report.WriteString(fmt.Sprintf("GOOS/GOARCH: %s/%s\n", runtime.GOOS, runtime.GOARCH))
	report.WriteString(fmt.Sprintf("Go: %s\n", runtime.Version()))
	report.WriteString("=== END CRASH REPORT ===\n")

	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write crash file: %w", err)
	}
	return crashPath, nil
}
