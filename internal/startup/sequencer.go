/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package startup performs the one-shot splash to main window transition at
// application launch. It knows nothing about the GUI toolkit: the host supplies
// a Registry of named windows and the package drives close/show on it.
package startup

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	applog "granblueautomation/internal/log"
)

// Window names looked up by the sequencer unless overridden.
const (
	SplashWindowName = "splashscreen"
	MainWindowName   = "main"
)

// Window is a host-owned window handle. The sequencer borrows it for a single
// Close or Show call and never retains it.
type Window interface {
	Close() error
	Show() error
}

// Registry looks up host windows by name.
type Registry interface {
	Window(name string) (Window, bool)
}

// RandomSource yields uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom returns a RandomSource backed by the math/rand/v2 global generator.
func DefaultRandom() RandomSource { return globalRand{} }

// Bounds is the delay range [Min, Max) counted in Unit.
type Bounds struct {
	Min  int
	Max  int
	Unit time.Duration
}

// DefaultBounds reproduces the launcher's historical delay: [1, 2) seconds,
// which always yields exactly one second.
func DefaultBounds() Bounds { return Bounds{Min: 1, Max: 2, Unit: time.Second} }

// Validate reports whether the range can produce at least one value.
func (b Bounds) Validate() error {
	if b.Min < 0 {
		return fmt.Errorf("delay min must be >= 0, got %d", b.Min)
	}
	if b.Max <= b.Min {
		return fmt.Errorf("delay max (%d) must be greater than min (%d)", b.Max, b.Min)
	}
	if b.Unit <= 0 {
		return fmt.Errorf("delay unit must be positive, got %s", b.Unit)
	}
	if int64(b.Max-1) > math.MaxInt64/int64(b.Unit) {
		return fmt.Errorf("delay max (%d) overflows at unit %s", b.Max, b.Unit)
	}
	return nil
}

// Draw picks a delay uniformly from the range using src.
func (b Bounds) Draw(src RandomSource) time.Duration {
	n := src.IntN(b.Max - b.Min)
	return time.Duration(b.Min+n) * b.Unit
}

// State of the transition.
type State int

const (
	StateSplash State = iota
	StateMain
)

func (s State) String() string {
	switch s {
	case StateSplash:
		return "splash"
	case StateMain:
		return "main"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes one completed (or aborted) transition.
type Outcome struct {
	Started      time.Time
	Finished     time.Time
	Delay        time.Duration
	SplashFound  bool
	SplashClosed bool
	MainShown    bool
	Err          error
}

// Options tune a Sequencer. Zero values fall back to defaults.
type Options struct {
	Bounds       Bounds
	Random       RandomSource
	Sleep        func(time.Duration)
	Now          func() time.Time
	SplashWindow string
	MainWindow   string
	// OnOutcome is called after every invocation, including fatal ones.
	OnOutcome func(Outcome)
}

// Sequencer runs the splash to main transition against a Registry.
type Sequencer struct {
	reg    Registry
	opts   Options
	log    *slog.Logger
	mu     sync.Mutex // serializes transitions
	state  atomic.Int32
	passes int
}

// New builds a Sequencer. Invalid bounds are rejected.
func New(reg Registry, opts Options) (*Sequencer, error) {
	if reg == nil {
		return nil, errors.New("startup: registry is required")
	}
	if opts.Bounds == (Bounds{}) {
		opts.Bounds = DefaultBounds()
	}
	if opts.Bounds.Unit == 0 {
		opts.Bounds.Unit = time.Second
	}
	if err := opts.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	if opts.Random == nil {
		opts.Random = DefaultRandom()
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SplashWindow == "" {
		opts.SplashWindow = SplashWindowName
	}
	if opts.MainWindow == "" {
		opts.MainWindow = MainWindowName
	}
	return &Sequencer{
		reg:  reg,
		opts: opts,
		log:  applog.WithComponent("startup"),
	}, nil
}

// State reports whether the main window has been revealed yet.
// It never waits for a transition in progress.
func (s *Sequencer) State() State { return State(s.state.Load()) }

// Bounds returns the effective delay range.
func (s *Sequencer) Bounds() Bounds { return s.opts.Bounds }

// CompleteStartupTransition blocks the calling goroutine for the drawn delay,
// closes the splash window if present and then shows the main window.
// The splash is always closed before the main window is looked up.
// Closing the splash is best-effort: a Close error on a present splash is
// logged and recorded in Outcome.SplashClosed but does not stop main from
// being shown.
// A missing main window or a failing show yields a *FatalError which the
// caller must treat as unrecoverable.
func (s *Sequencer) CompleteStartupTransition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes++

	l := applog.WithOperation(s.log, "transition").With(slog.Int("pass", s.passes))
	out := Outcome{Started: s.opts.Now()}
	out.Delay = s.opts.Bounds.Draw(s.opts.Random)
	l.Debug("splash delay", slog.Duration("delay", out.Delay))
	s.opts.Sleep(out.Delay)

	if w, ok := s.reg.Window(s.opts.SplashWindow); ok {
		out.SplashFound = true
		if err := w.Close(); err != nil {
			l.Warn("close splash failed", slog.String("window", s.opts.SplashWindow), slog.Any("err", err))
		} else {
			out.SplashClosed = true
		}
	} else {
		l.Debug("no splash window", slog.String("window", s.opts.SplashWindow))
	}

	out.Err = s.showMain()
	out.MainShown = out.Err == nil
	out.Finished = s.opts.Now()
	if out.MainShown {
		s.state.Store(int32(StateMain))
		l.Info("main window shown", slog.Duration("delay", out.Delay), slog.Bool("splash_closed", out.SplashClosed))
	} else {
		l.Error("startup transition failed", slog.Any("err", out.Err))
	}
	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(out)
	}
	return out.Err
}

func (s *Sequencer) showMain() error {
	w, ok := s.reg.Window(s.opts.MainWindow)
	if !ok {
		return &FatalError{Window: s.opts.MainWindow, Op: "lookup", Err: ErrWindowNotFound}
	}
	if err := w.Show(); err != nil {
		return &FatalError{Window: s.opts.MainWindow, Op: "show", Err: err}
	}
	return nil
}
