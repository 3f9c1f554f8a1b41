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
)

// ErrWindowNotFound is wrapped by FatalError when a required window is missing.
var ErrWindowNotFound = errors.New("window not found")

// FatalError marks a startup invariant violation. Hosts must abort the
// process when they receive one; it is never retried.
type FatalError struct {
	Window string
	Op     string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal startup error: %s window %q: %v", e.Op, e.Window, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
