//go:build !fyne

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

import "errors"

// ErrHeadless is returned by Run in binaries built without the Fyne driver.
var ErrHeadless = errors.New("splash launcher has no window driver in this binary; build with -tags fyne to get the splash and main windows")

// Run reports ErrHeadless. The CLI subcommands (history, config, update) keep
// working in this build.
func Run(_ RunOptions) error { return ErrHeadless }
