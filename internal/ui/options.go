/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui hosts the launcher windows. The Fyne implementation is compiled
// with -tags fyne; other builds get a stub so CI stays headless.
package ui

import (
	"context"
	"log/slog"
	"time"

	"granblueautomation/internal/config"
	"granblueautomation/internal/history"
	applog "granblueautomation/internal/log"
	"granblueautomation/internal/startup"
	"granblueautomation/internal/update"
)

// RunOptions carries everything the desktop shell needs from the bootstrap.
type RunOptions struct {
	Config config.AppConfig
	// Journal receives one record per startup transition; may be nil.
	Journal *history.Journal
	// LastLaunch is shown in the main window when present.
	LastLaunch *history.Launch
	// Updates is queried once the main window is shown; nil disables the check.
	Updates *update.Checker
}

type updateChecker interface {
	Check(ctx context.Context, current string) (update.Release, bool, error)
}

// announceUpdate runs one release check and calls show with the notice when a
// newer release exists. Errors are logged and otherwise ignored.
func announceUpdate(ctx context.Context, c updateChecker, current string, events eventSink, show func(notice, url string)) {
	if c == nil {
		return
	}
	rel, newer, err := c.Check(ctx, current)
	if err != nil {
		applog.WithComponent("ui").Debug("update check skipped", slog.Any("err", err))
		return
	}
	if !newer {
		return
	}
	if events != nil {
		events.Event("update_available", map[string]any{"latest": rel.Version})
	}
	show(rel.Notice(current), rel.URL)
}

type launchRecorder interface {
	Record(ctx context.Context, o startup.Outcome) (history.Launch, error)
}

type eventSink interface {
	Event(name string, props map[string]any)
}

// outcomeHook persists and reports each transition. Failures are logged and
// never interrupt startup.
func outcomeHook(rec launchRecorder, events eventSink) func(startup.Outcome) {
	l := applog.WithComponent("ui")
	return func(o startup.Outcome) {
		if rec != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if _, err := rec.Record(ctx, o); err != nil {
				l.Warn("record launch failed", slog.Any("err", err))
			}
			cancel()
		}
		if events != nil {
			events.Event("startup_transition", map[string]any{
				"delay_ms":      o.Delay.Milliseconds(),
				"splash_found":  o.SplashFound,
				"splash_closed": o.SplashClosed,
				"main_shown":    o.MainShown,
				"fatal":         startup.IsFatal(o.Err),
			})
		}
	}
}

// sequencerOptions maps splash settings onto the sequencer.
func sequencerOptions(cfg config.SplashConfig, hook func(startup.Outcome)) startup.Options {
	return startup.Options{
		Bounds:       cfg.Bounds(),
		SplashWindow: cfg.SplashWindow,
		MainWindow:   cfg.MainWindow,
		OnOutcome:    hook,
	}
}
