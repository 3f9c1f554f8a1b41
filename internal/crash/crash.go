/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash terminates the process on unrecoverable failures: recovered
// panics and fatal startup errors. Both paths write a report file, optionally
// notify the desktop and upload the report, then exit with code 2.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	applog "granblueautomation/internal/log"
	"granblueautomation/internal/telemetry"
	"granblueautomation/internal/version"
)

// ExitCode is used for every crash exit.
const ExitCode = 2

// Options configure where reports go and whether the user is notified.
type Options struct {
	Dir    string // report directory; os.TempDir() when empty
	Notify bool   // raise a desktop notification before exiting
}

var (
	mu   sync.RWMutex
	opts Options

	// replaced in tests
	exitFn   = os.Exit
	notifyFn = func(title, msg string) error { return beeep.Alert(title, msg, "") }
)

// Configure sets the package options.
func Configure(o Options) {
	beeep.AppName = "Granblue Automation"
	mu.Lock()
	opts = o
	mu.Unlock()
}

func current() Options {
	mu.RLock()
	defer mu.RUnlock()
	return opts
}

// Recover captures a panic and terminates the process.
//
// Usage: defer crash.Recover()
func Recover() {
	if r := recover(); r != nil {
		terminate("panic", r, debug.Stack())
	}
}

// Abort terminates the process because of err. Hosts call it with fatal
// startup errors; it does not return in a real process.
func Abort(err error) {
	terminate("fatal", err, debug.Stack())
}

func terminate(kind string, cause any, stack []byte) {
	l := applog.WithComponent("crash")
	l.Error(kind+" error, terminating", slog.Any("cause", cause), slog.String("stack", string(stack)))

	o := current()
	report := buildReport(kind, cause, stack)
	path, err := writeReport(o.Dir, report)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err), slog.String("path", path))
	}
	telemetry.UploadCrash(report)

	if o.Notify {
		msg := fmt.Sprintf("Granblue Automation failed to start: %v", cause)
		if err := notifyFn("Granblue Automation", msg); err != nil {
			l.Warn("desktop notification failed", slog.Any("err", err))
		}
	}
	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred: %v\nA crash report was saved to: %s\n", cause, path)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	_ = applog.Close()
	exitFn(ExitCode)
}

func buildReport(kind string, cause any, stack []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Granblue Automation Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&buf, "Kind: %s\n", kind)
	fmt.Fprintf(&buf, "\nCause: %v\n\n", cause)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)
	return buf.Bytes()
}

func writeReport(dir string, report []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, err
	}
	if err := os.WriteFile(path, report, 0o644); err != nil {
		return path, err
	}
	return path, nil
}
