// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store is the sqlite audit trail: every run's full report plus
// one row per scenario result, and optionally the snapshot pairs behind
// each result for later forensics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/suite"
)

// SchemaVersion tracks the database schema for migrations.
const SchemaVersion = 1

// Store manages audit persistence in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the audit database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WrapStoreError("create data dir", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, errors.WrapStoreError("open database", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := os.Chmod(path, 0600); err != nil {
		logger.Logger.Warn("Failed to set database permissions", "error", err)
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		network TEXT NOT NULL,
		test_date TIMESTAMP NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		security_score INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		schema_version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		scenario_id TEXT NOT NULL,
		category TEXT NOT NULL,
		target_program TEXT,
		status TEXT NOT NULL,
		severity TEXT,
		execution_time_ms INTEGER NOT NULL,
		error_msg TEXT,
		details TEXT,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		scenario_id TEXT NOT NULL,
		target_program TEXT,
		pre_json TEXT NOT NULL,
		post_json TEXT NOT NULL,
		captured_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(test_date);
	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_status ON results(status);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return errors.WrapStoreError("create schema", err)
	}
	return nil
}

// SaveRun persists a completed suite report and its result rows in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, report *suite.TestSuiteReport) error {
	if report.RunID == "" {
		return errors.WrapStoreError("save run", fmt.Errorf("run id is required"))
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return errors.WrapMarshalFailed(err)
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStoreError("begin transaction", err)
	}
	defer txn.Rollback()

	_, err = txn.ExecContext(ctx, `
		INSERT INTO runs (run_id, network, test_date, total, passed, failed, errors, security_score, report_json, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Network,
		report.Summary.TestDate,
		report.Summary.Total,
		report.Summary.Passed,
		report.Summary.Failed,
		report.Summary.Errors,
		report.SecurityScore,
		string(reportJSON),
		SchemaVersion,
	)
	if err != nil {
		return errors.WrapStoreError("insert run", err)
	}

	for _, r := range report.Results {
		_, err = txn.ExecContext(ctx, `
			INSERT INTO results (run_id, scenario_id, category, target_program, status, severity, execution_time_ms, error_msg, details, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			r.ScenarioID,
			string(r.Category),
			r.TargetProgram,
			string(r.Status),
			string(r.Severity()),
			r.ExecutionTimeMs,
			r.Error,
			r.Details,
			r.Timestamp,
		)
		if err != nil {
			return errors.WrapStoreError("insert result", err)
		}
	}

	if err := txn.Commit(); err != nil {
		return errors.WrapStoreError("commit run", err)
	}

	logger.Logger.Info("audit run persisted", "run_id", report.RunID, "results", len(report.Results))
	return nil
}

// SaveSnapshotPair retains the pre/post snapshots behind one scenario
// result, when snapshot persistence is enabled.
func (s *Store) SaveSnapshotPair(ctx context.Context, runID, scenarioID, targetProgram string, pre, post *snapshot.Snapshot) error {
	preJSON, err := json.Marshal(pre)
	if err != nil {
		return errors.WrapMarshalFailed(err)
	}
	postJSON, err := json.Marshal(post)
	if err != nil {
		return errors.WrapMarshalFailed(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, scenario_id, target_program, pre_json, post_json, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, scenarioID, targetProgram, string(preJSON), string(postJSON), time.Now(),
	)
	if err != nil {
		return errors.WrapStoreError("insert snapshot pair", err)
	}
	return nil
}

// GetRun loads a persisted suite report by run id.
func (s *Store) GetRun(ctx context.Context, runID string) (*suite.TestSuiteReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT report_json FROM runs WHERE run_id = ?", runID,
	).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, errors.WrapStoreError("get run", fmt.Errorf("run %s not found", runID))
	}
	if err != nil {
		return nil, errors.WrapStoreError("get run", err)
	}

	var report suite.TestSuiteReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, errors.WrapUnmarshalFailed(err, "run report")
	}
	return &report, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID         string    `json:"run_id"`
	Network       string    `json:"network"`
	TestDate      time.Time `json:"test_date"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Failed        int       `json:"failed"`
	SecurityScore int       `json:"security_score"`
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, network, test_date, total, passed, failed, security_score
		FROM runs ORDER BY test_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapStoreError("list runs", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Network, &r.TestDate, &r.Total, &r.Passed, &r.Failed, &r.SecurityScore); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SnapshotPair is a persisted pre/post snapshot couple.
type SnapshotPair struct {
	ScenarioID    string             `json:"scenario_id"`
	TargetProgram string             `json:"target_program"`
	Pre           *snapshot.Snapshot `json:"pre"`
	Post          *snapshot.Snapshot `json:"post"`
}

// GetSnapshots returns the snapshot pairs retained for a run.
func (s *Store) GetSnapshots(ctx context.Context, runID string) ([]SnapshotPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario_id, target_program, pre_json, post_json
		FROM snapshots WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.WrapStoreError("get snapshots", err)
	}
	defer rows.Close()

	var out []SnapshotPair
	for rows.Next() {
		var pair SnapshotPair
		var preJSON, postJSON string
		if err := rows.Scan(&pair.ScenarioID, &pair.TargetProgram, &preJSON, &postJSON); err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(preJSON), &pair.Pre); err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(postJSON), &pair.Post); err != nil {
			continue
		}
		out = append(out, pair)
	}
	return out, rows.Err()
}
