/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command granblueautomation launches the Granblue Automation desktop shell.
//
// Build the desktop UI with:
//
//	go build -tags fyne ./cmd/granblueautomation
//
// Windows release builds add -ldflags "-H=windowsgui" so no console window is attached.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"granblueautomation/internal/config"
	"granblueautomation/internal/crash"
	"granblueautomation/internal/history"
	applog "granblueautomation/internal/log"
	"granblueautomation/internal/telemetry"
	"granblueautomation/internal/ui"
	"granblueautomation/internal/update"
	"granblueautomation/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Granblue Automation")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  granblueautomation [ui]            Launch the desktop UI (build with -tags fyne)")
	fmt.Fprintln(w, "  granblueautomation version         Show version")
	fmt.Fprintln(w, "  granblueautomation history [n]     Show the last n launches (default 10)")
	fmt.Fprintln(w, "  granblueautomation config          Print the effective configuration")
	fmt.Fprintln(w, "  granblueautomation update          Check GitHub for a newer release")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config file ignored, using defaults", slog.Any("err", cfgErr))
	}

	dir, err := config.Dir()
	if err != nil {
		l.Warn("config dir unavailable", slog.Any("err", err))
		dir = filepath.Join(os.TempDir(), "granblueautomation")
	}
	crash.Configure(crash.Options{Dir: filepath.Join(dir, "crashes"), Notify: cfg.General.NotifyOnCrash})
	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	tel := telemetry.New(tcfg)
	telemetry.SetDefault(tel)
	defer crash.Recover()

	os.Exit(run(os.Args[1:], cfg, dir, tel))
}

func run(args []string, cfg config.AppConfig, dir string, tel *telemetry.Client) int {
	defer tel.Close()
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))
	if version.IsDevelopment() {
		l.Warn("running a development build", slog.String("version", version.Version))
	}

	cmd := "ui"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("Granblue Automation")
		fmt.Println(version.String())
		return 0
	case "history":
		n := 10
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				fmt.Fprintln(os.Stderr, "history expects a positive count")
				return 2
			}
			n = v
		}
		if err := printHistory(os.Stdout, dir, n); err != nil {
			l.Error("history failed", slog.Any("err", err))
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		return 0
	case "config":
		if err := printConfig(os.Stdout, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		return 0
	case "ui":
		if err := cfg.Validate(); err != nil {
			l.Error("invalid configuration", slog.Any("err", err))
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		opts := ui.RunOptions{Config: cfg}
		if cfg.General.CheckUpdates {
			opts.Updates = update.New(update.FromEnv())
		}
		if j, err := history.Open(dir); err != nil {
			l.Warn("launch history unavailable", slog.Any("err", err))
		} else {
			defer j.Close()
			opts.Journal = j
			if last, ok, err := j.Last(context.Background()); err == nil && ok {
				opts.LastLaunch = &last
			}
		}
		if err := ui.Run(opts); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		return 0
	case "update":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := printUpdate(ctx, os.Stdout, update.New(update.FromEnv()), version.Version); err != nil {
			l.Error("update check failed", slog.Any("err", err))
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		return 0
	case "help", "-h", "--help":
		usage(os.Stdout)
		return 0
	}
	usage(os.Stderr)
	return 2
}

func printHistory(w io.Writer, dir string, n int) error {
	j, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer j.Close()
	launches, err := j.Recent(context.Background(), n)
	if err != nil {
		return err
	}
	if len(launches) == 0 {
		fmt.Fprintln(w, "No launches recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDELAY\tSPLASH\tMAIN\tVERSION\tERROR")
	for _, ln := range launches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ln.StartedAt.Format("2006-01-02 15:04:05"), ln.Delay,
			yesNo(ln.SplashClosed), yesNo(ln.MainShown), ln.AppVersion, ln.Error)
	}
	return tw.Flush()
}

func printConfig(w io.Writer, cfg config.AppConfig) error {
	path, _ := config.Path()
	fmt.Fprintf(w, "# %s\n", path)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	for _, k := range config.OverridableKeys() {
		if env, ok := config.EnvOverrideFor(k); ok {
			fmt.Fprintf(w, "# %s overridden by %s\n", k, env)
		}
	}
	return nil
}

func printUpdate(ctx context.Context, w io.Writer, c *update.Checker, current string) error {
	rel, newer, err := c.Check(ctx, current)
	if err != nil {
		return err
	}
	if !newer {
		fmt.Fprintf(w, "Up to date (%s, latest %s).\n", current, rel.Version)
		return nil
	}
	fmt.Fprintln(w, rel.Notice(current))
	fmt.Fprintln(w, rel.URL)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
