/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package startup

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	applog "granblueautomation/internal/log"
)

// CommandCloseSplashscreen is the command the host invokes once the main
// window content is ready.
const CommandCloseSplashscreen = "close_splashscreen"

// ErrUnknownCommand is returned by Invoke for unregistered names.
var ErrUnknownCommand = errors.New("unknown command")

// Handler runs one host command.
type Handler func() error

// Commands is the table of operations the host runtime may invoke by name.
type Commands struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewCommands returns an empty command table.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]Handler)}
}

// Register binds name to h, replacing any previous binding.
func (c *Commands) Register(name string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

// Names lists the registered commands in sorted order.
func (c *Commands) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handlers))
	for n := range c.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the handler registered under name.
func (c *Commands) Invoke(name string) error {
	c.mu.RLock()
	h, ok := c.handlers[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	applog.WithComponent("commands").Debug("invoke", slog.String("command", name))
	return h()
}

// CloseSplashscreen returns the handler for CommandCloseSplashscreen.
// A fatal transition error is passed to abort, which must not return
// control to the host in a real process. Other errors are returned.
func CloseSplashscreen(seq *Sequencer, abort func(error)) Handler {
	return func() error {
		err := seq.CompleteStartupTransition()
		if err == nil {
			return nil
		}
		if IsFatal(err) && abort != nil {
			abort(err)
		}
		return err
	}
}
