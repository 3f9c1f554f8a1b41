/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package update asks the GitHub releases API whether a newer launcher
// release exists.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	applog "granblueautomation/internal/log"
)

const (
	// DefaultURL is the latest-release endpoint of the upstream repository.
	DefaultURL = "https://api.github.com/repos/steve1316/granblue-automation-pyautogui/releases/latest"
	// ReleasesPage is where users download new builds.
	ReleasesPage = "https://github.com/steve1316/granblue-automation-pyautogui/releases"
)

// Environment variables read by FromEnv.
const (
	EnvURL       = "GBA_UPDATE_URL"
	EnvTimeoutMs = "GBA_UPDATE_TIMEOUT_MS"
)

// ErrBadVersion is returned when the release tag is not a semantic version.
var ErrBadVersion = errors.New("release tag is not a semantic version")

// Config points the checker at a releases endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// FromEnv reads Config from GBA_UPDATE_* variables. Timeout defaults to 3s.
func FromEnv() Config {
	cfg := Config{URL: DefaultURL, Timeout: 3 * time.Second}
	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		cfg.URL = v
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMs))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// Release is the subset of a GitHub release the launcher cares about.
type Release struct {
	Version     string    `json:"tag_name"`
	URL         string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Notice is the message shown when r is newer than current. An unknown
// current version drops the "from" part.
func (r Release) Notice(current string) string {
	next := canonical(r.Version)
	if cur := canonical(current); cur != "" {
		return fmt.Sprintf("Update available: %s -> %s", cur, next)
	}
	return "Update available: " + next
}

// Checker queries the releases endpoint.
type Checker struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client
}

// New returns a Checker. An empty URL falls back to DefaultURL.
func New(cfg Config) *Checker {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Checker{
		cfg:  cfg,
		log:  applog.WithComponent("update"),
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Latest fetches the newest published release.
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "granblueautomation")
	resp, err := c.http.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("fetch release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Release{}, fmt.Errorf("fetch release: %s", resp.Status)
	}
	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return Release{}, fmt.Errorf("decode release: %w", err)
	}
	if canonical(rel.Version) == "" {
		return Release{}, fmt.Errorf("%w: %q", ErrBadVersion, rel.Version)
	}
	if rel.URL == "" {
		rel.URL = ReleasesPage
	}
	return rel, nil
}

// Check reports the latest release and whether it is newer than current.
func (c *Checker) Check(ctx context.Context, current string) (Release, bool, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		c.log.Debug("update check failed", slog.Any("err", err))
		return Release{}, false, err
	}
	newer := Newer(rel.Version, current)
	c.log.Info("update check", slog.String("latest", rel.Version), slog.String("current", current), slog.Bool("newer", newer))
	return rel, newer, nil
}

// Newer reports whether latest is a higher semantic version than current.
// Tags may omit the leading "v". An unparseable current version counts as
// older than any valid release.
func Newer(latest, current string) bool {
	l := canonical(latest)
	if l == "" {
		return false
	}
	cur := canonical(current)
	if cur == "" {
		return true
	}
	return semver.Compare(l, cur) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
