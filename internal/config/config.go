/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user launcher configuration.
//
// The YAML file is validated against an embedded JSON schema and merged over
// the defaults; GBA_* environment variables are read-only overrides on top.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"granblueautomation/internal/startup"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidConfig wraps problems found in the config file. Load still returns
// a usable config (defaults plus env) alongside it.
var ErrInvalidConfig = errors.New("invalid config file")

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
	NotifyOnCrash  bool `yaml:"notify_on_crash"`
	CheckUpdates   bool `yaml:"check_updates"`
}

// SplashConfig controls the splash window and the delay before the main window appears.
// The delay is drawn from [MinDelay, MaxDelay) in units of UnitMs milliseconds.
type SplashConfig struct {
	MinDelay     int    `yaml:"min_delay"`
	MaxDelay     int    `yaml:"max_delay"`
	UnitMs       int    `yaml:"unit_ms"`
	SplashWindow string `yaml:"splash_window"`
	MainWindow   string `yaml:"main_window"`
	Image        string `yaml:"image"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Splash        SplashConfig  `yaml:"splash"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults. The splash delay range [1, 2)
// seconds always yields one second.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, NotifyOnCrash: true, CheckUpdates: true},
		Splash: SplashConfig{
			MinDelay:     1,
			MaxDelay:     2,
			UnitMs:       1000,
			SplashWindow: startup.SplashWindowName,
			MainWindow:   startup.MainWindowName,
			Width:        400,
			Height:       300,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir      = "GBA_CONFIG_DIR"
	EnvTelemetryOptIn = "GBA_TELEMETRY_OPT_IN"
	EnvNotifyOnCrash  = "GBA_NOTIFY_ON_CRASH"
	EnvCheckUpdates   = "GBA_CHECK_UPDATES"
	EnvSplashMin      = "GBA_SPLASH_MIN_DELAY"
	EnvSplashMax      = "GBA_SPLASH_MAX_DELAY"
	EnvSplashUnitMs   = "GBA_SPLASH_UNIT_MS"
	EnvSplashImage    = "GBA_SPLASH_IMAGE"
	EnvLogLevel       = "GBA_LOG_LEVEL"
	EnvLogFormat      = "GBA_LOG_FORMAT"
	EnvLogSource      = "GBA_LOG_SOURCE"
	EnvLogFile        = "GBA_LOG_FILE"
)

// Dir returns the per-user configuration directory. GBA_CONFIG_DIR wins when set.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(base, "GranblueAutomation"), nil
	case "darwin":
		base = os.Getenv("HOME")
		if base == "" {
			return "", errors.New("cannot resolve config directory")
		}
		return filepath.Join(base, "Library", "Application Support", "GranblueAutomation"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "granblueautomation"), nil
		}
		base = os.Getenv("HOME")
		if base == "" {
			return "", errors.New("cannot resolve config directory")
		}
		return filepath.Join(base, ".config", "granblueautomation"), nil
	}
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file (if present), applies defaults and merges
// environment overrides. A missing file is not an error.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		fileCfg, err := Parse(data)
		if err != nil {
			fileErr = fmt.Errorf("%s: %w", path, err)
		} else {
			cfg = fileCfg
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fileErr = fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, fileErr
}

// Parse validates YAML config bytes and decodes them over the defaults.
// Keys absent from the document keep their default values.
func Parse(data []byte) (AppConfig, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc != nil {
		if err := validate(doc); err != nil {
			return AppConfig{}, err
		}
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	normalize(&cfg)
	return cfg, nil
}

func validate(doc map[string]any) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Save writes the config YAML, creating the directory if needed.
func Save(cfg AppConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Bounds converts the splash delay settings into startup bounds.
func (s SplashConfig) Bounds() startup.Bounds {
	unit := s.UnitMs
	if unit <= 0 {
		unit = Defaults().Splash.UnitMs
	}
	return startup.Bounds{Min: s.MinDelay, Max: s.MaxDelay, Unit: time.Duration(unit) * time.Millisecond}
}

// normalize trims string settings and fills blanks with defaults.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.ConfigVersion == 0 {
		cfg.ConfigVersion = def.ConfigVersion
	}
	cfg.Splash.SplashWindow = strings.TrimSpace(cfg.Splash.SplashWindow)
	if cfg.Splash.SplashWindow == "" {
		cfg.Splash.SplashWindow = def.Splash.SplashWindow
	}
	cfg.Splash.MainWindow = strings.TrimSpace(cfg.Splash.MainWindow)
	if cfg.Splash.MainWindow == "" {
		cfg.Splash.MainWindow = def.Splash.MainWindow
	}
	cfg.Splash.Image = strings.TrimSpace(cfg.Splash.Image)
	if cfg.Splash.UnitMs <= 0 {
		cfg.Splash.UnitMs = def.Splash.UnitMs
	}
	if cfg.Splash.Width <= 0 {
		cfg.Splash.Width = def.Splash.Width
	}
	if cfg.Splash.Height <= 0 {
		cfg.Splash.Height = def.Splash.Height
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := envBool(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = v
	}
	if v, ok := envBool(EnvNotifyOnCrash); ok {
		cfg.General.NotifyOnCrash = v
	}
	if v, ok := envBool(EnvCheckUpdates); ok {
		cfg.General.CheckUpdates = v
	}
	if v, ok := envInt(EnvSplashMin); ok {
		cfg.Splash.MinDelay = v
	}
	if v, ok := envInt(EnvSplashMax); ok {
		cfg.Splash.MaxDelay = v
	}
	if v, ok := envInt(EnvSplashUnitMs); ok {
		cfg.Splash.UnitMs = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSplashImage)); v != "" {
		cfg.Splash.Image = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envBool(key string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return false, false
	}
	return v == "1" || v == "true" || v == "on" || v == "yes", true
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

var overrideKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.notify_on_crash":  EnvNotifyOnCrash,
	"general.check_updates":    EnvCheckUpdates,
	"splash.min_delay":         EnvSplashMin,
	"splash.max_delay":         EnvSplashMax,
	"splash.unit_ms":           EnvSplashUnitMs,
	"splash.image":             EnvSplashImage,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the key is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Validate checks cross-field constraints the schema cannot express.
func (c AppConfig) Validate() error {
	if err := c.Splash.Bounds().Validate(); err != nil {
		return fmt.Errorf("splash: %w", err)
	}
	return nil
}

// OverridableKeys lists the dotted keys that have an environment override, sorted.
func OverridableKeys() []string {
	keys := make([]string, 0, len(overrideKeys))
	for k := range overrideKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
