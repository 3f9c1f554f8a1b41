/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"granblueautomation/internal/startup"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	for _, k := range overrideKeys {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	b := cfg.Splash.Bounds()
	if b != startup.DefaultBounds() {
		t.Fatalf("default bounds = %+v, want %+v", b, startup.DefaultBounds())
	}
	if cfg.Splash.SplashWindow != "splashscreen" || cfg.Splash.MainWindow != "main" {
		t.Fatalf("unexpected window names: %+v", cfg.Splash)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Defaults()
	cfg.Splash.MinDelay = 1
	cfg.Splash.MaxDelay = 4
	cfg.Splash.Image = "/tmp/splash.png"
	cfg.General.TelemetryOptIn = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Splash.MaxDelay != 4 || got.Splash.Image != "/tmp/splash.png" || !got.General.TelemetryOptIn {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	data := []byte("splash:\n  max_delay: 3\nlogging:\n  level: DEBUG\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Splash.MinDelay != 1 || cfg.Splash.MaxDelay != 3 {
		t.Fatalf("delay range = [%d,%d), want [1,3)", cfg.Splash.MinDelay, cfg.Splash.MaxDelay)
	}
	if !cfg.General.NotifyOnCrash {
		t.Fatalf("notify_on_crash default lost")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not normalized: %q", cfg.Logging.Level)
	}
}

func TestSchemaRejectsBadTypes(t *testing.T) {
	dir := isolate(t)
	data := []byte("splash:\n  min_delay: soon\n  width: 10\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if cfg.Splash.MinDelay != 1 || cfg.Splash.Width != 400 {
		t.Fatalf("defaults should apply on invalid file: %+v", cfg.Splash)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("splash: [")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnvOverridesSplash(t *testing.T) {
	isolate(t)
	t.Setenv(EnvSplashMin, "2")
	t.Setenv(EnvSplashMax, "5")
	t.Setenv(EnvSplashUnitMs, "100")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := startup.Bounds{Min: 2, Max: 5, Unit: 100 * time.Millisecond}
	if got := cfg.Splash.Bounds(); got != want {
		t.Fatalf("Bounds() = %+v, want %+v", got, want)
	}
	if env, ok := EnvOverrideFor("splash.max_delay"); !ok || env != EnvSplashMax {
		t.Fatalf("EnvOverrideFor(splash.max_delay) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("splash.image"); ok {
		t.Fatalf("splash.image should not be overridden")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gba.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gba.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestValidateRejectsEmptyRange(t *testing.T) {
	cfg := Defaults()
	cfg.Splash.MaxDelay = cfg.Splash.MinDelay
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty delay range")
	}
}

func TestParseRejectsHugeDelays(t *testing.T) {
	_, err := Parse([]byte("splash:\n  min_delay: 10000000000\n  max_delay: 10000000001\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsOverflowingEnvDelay(t *testing.T) {
	isolate(t)
	t.Setenv(EnvSplashMin, "10000000000")
	t.Setenv(EnvSplashMax, "10000000001")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected overflowing delay to be rejected, bounds %+v", cfg.Splash.Bounds())
	}
}

func TestCheckUpdatesDefaultAndOverride(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.General.CheckUpdates {
		t.Fatalf("update checks should default to on")
	}
	t.Setenv(EnvCheckUpdates, "0")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.CheckUpdates {
		t.Fatalf("%s=0 should disable update checks", EnvCheckUpdates)
	}
	if env, ok := EnvOverrideFor("general.check_updates"); !ok || env != EnvCheckUpdates {
		t.Fatalf("EnvOverrideFor = %q, %v", env, ok)
	}
}
