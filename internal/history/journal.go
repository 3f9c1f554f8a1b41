/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps a local journal of application launches: how long the
// splash was held and whether the main window came up.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "granblueautomation/internal/log"
	"granblueautomation/internal/startup"
	"granblueautomation/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	FileName      = "launches.sqlite"
	schemaVersion = 1
)

// Launch is one journal row.
type Launch struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Delay        time.Duration
	SplashClosed bool
	MainShown    bool
	Error        string
	AppVersion   string
}

// Succeeded reports whether the main window was shown.
func (l Launch) Succeeded() bool { return l.MainShown && l.Error == "" }

// Journal is a handle on the launch database.
type Journal struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Path returns the database path inside dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Open creates or opens the journal in dir.
func Open(dir string) (*Journal, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("history: directory is required")
	}
	l := applog.WithOperation(applog.WithComponent("history"), "open").With(slog.String("dir", dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	path := Path(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready", slog.String("path", path))
	return &Journal{db: db, path: path, log: applog.WithComponent("history")}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS launches (
			id            TEXT PRIMARY KEY,
			started_at    INTEGER NOT NULL,
			finished_at   INTEGER NOT NULL,
			delay_ms      INTEGER NOT NULL,
			splash_closed INTEGER NOT NULL,
			main_shown    INTEGER NOT NULL,
			error         TEXT NOT NULL DEFAULT '',
			app_version   TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS launches_started ON launches(started_at DESC);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("history schema: %w", err)
		}
	}
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='schema_version'`).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('schema_version', ?)`, fmt.Sprint(schemaVersion))
		return err
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != fmt.Sprint(schemaVersion) {
		return fmt.Errorf("history schema version %s not supported (want %d)", v, schemaVersion)
	}
	return nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record stores one startup outcome.
func (j *Journal) Record(ctx context.Context, o startup.Outcome) (Launch, error) {
	l := Launch{
		ID:           uuid.NewString(),
		StartedAt:    o.Started,
		FinishedAt:   o.Finished,
		Delay:        o.Delay,
		SplashClosed: o.SplashClosed,
		MainShown:    o.MainShown,
		AppVersion:   version.String(),
	}
	if o.Err != nil {
		l.Error = o.Err.Error()
	}
	_, err := j.db.ExecContext(ctx, `INSERT INTO launches
		(id, started_at, finished_at, delay_ms, splash_closed, main_shown, error, app_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.StartedAt.UnixMilli(), l.FinishedAt.UnixMilli(), l.Delay.Milliseconds(),
		boolInt(l.SplashClosed), boolInt(l.MainShown), l.Error, l.AppVersion)
	if err != nil {
		return Launch{}, fmt.Errorf("record launch: %w", err)
	}
	j.log.Debug("launch recorded", slog.String("id", l.ID), slog.Bool("main_shown", l.MainShown))
	return l, nil
}

// Recent returns up to n launches, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Launch, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id, started_at, finished_at, delay_ms, splash_closed, main_shown, error, app_version
		FROM launches ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()
	var out []Launch
	for rows.Next() {
		var (
			l                       Launch
			started, finished       int64
			delayMs                 int64
			splashClosed, mainShown int
		)
		if err := rows.Scan(&l.ID, &started, &finished, &delayMs, &splashClosed, &mainShown, &l.Error, &l.AppVersion); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		l.StartedAt = time.UnixMilli(started)
		l.FinishedAt = time.UnixMilli(finished)
		l.Delay = time.Duration(delayMs) * time.Millisecond
		l.SplashClosed = splashClosed != 0
		l.MainShown = mainShown != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// Last returns the most recent launch, if any.
func (j *Journal) Last(ctx context.Context) (Launch, bool, error) {
	ls, err := j.Recent(ctx, 1)
	if err != nil || len(ls) == 0 {
		return Launch{}, false, err
	}
	return ls[0], true, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
