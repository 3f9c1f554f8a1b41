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

import "strings"

// ColorScheme is the persisted light/dark choice for the main window.
type ColorScheme string

const (
	SchemeLight ColorScheme = "light"
	SchemeDark  ColorScheme = "dark"
)

const prefColorScheme = "ui.color_scheme"

// stringPrefs is the part of fyne.Preferences the scheme needs.
type stringPrefs interface {
	StringWithFallback(key, fallback string) string
	SetString(key, value string)
}

// ParseColorScheme maps a stored value to a scheme; unknown values are light.
func ParseColorScheme(v string) ColorScheme {
	if ColorScheme(strings.ToLower(strings.TrimSpace(v))) == SchemeDark {
		return SchemeDark
	}
	return SchemeLight
}

// Toggle returns the other scheme.
func (s ColorScheme) Toggle() ColorScheme {
	if s == SchemeDark {
		return SchemeLight
	}
	return SchemeDark
}

func loadColorScheme(p stringPrefs) ColorScheme {
	return ParseColorScheme(p.StringWithFallback(prefColorScheme, string(SchemeLight)))
}

func saveColorScheme(p stringPrefs, s ColorScheme) {
	p.SetString(prefColorScheme, string(ParseColorScheme(string(s))))
}
