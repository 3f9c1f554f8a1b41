//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"sync"

	"fyne.io/fyne/v2"

	"granblueautomation/internal/startup"
)

// WindowRegistry exposes named Fyne windows to the startup sequencer.
// Close and Show run on the Fyne main goroutine and block until done, so the
// sequencer may call them from any goroutine.
type WindowRegistry struct {
	mu      sync.Mutex
	windows map[string]fyne.Window
}

// NewWindowRegistry returns an empty registry. Windows are added with Add
// before the startup command runs.
func NewWindowRegistry() *WindowRegistry {
	return &WindowRegistry{windows: make(map[string]fyne.Window)}
}

// Add registers w under name. The entry is dropped when the window closes.
func (r *WindowRegistry) Add(name string, w fyne.Window) {
	r.mu.Lock()
	r.windows[name] = w
	r.mu.Unlock()
	w.SetOnClosed(func() { r.remove(name, w) })
}

func (r *WindowRegistry) remove(name string, w fyne.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.windows[name]; ok && cur == w {
		delete(r.windows, name)
	}
}

// Window implements startup.Registry.
func (r *WindowRegistry) Window(name string) (startup.Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[name]
	if !ok {
		return nil, false
	}
	return &fyneWindow{reg: r, name: name, win: w}, true
}

type fyneWindow struct {
	reg  *WindowRegistry
	name string
	win  fyne.Window
}

func (w *fyneWindow) Close() error {
	w.reg.remove(w.name, w.win)
	fyne.DoAndWait(w.win.Close)
	return nil
}

func (w *fyneWindow) Show() error {
	fyne.DoAndWait(func() {
		w.win.Show()
		w.win.RequestFocus()
	})
	return nil
}
