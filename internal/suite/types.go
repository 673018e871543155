// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package suite defines the result types an audit run produces and the
// aggregation that turns a result stream into the final report.
package suite

import (
	"time"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/score"
)

// Status of one scenario execution. Terminal in one transition:
// pending -> running -> {passed | failed | error | skipped}.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// AttackOutcome is the evidence from one attack scenario execution.
type AttackOutcome struct {
	Report        *score.VulnerabilityReport `json:"report"`
	SimulationErr string                     `json:"simulation_err,omitempty"`
	Logs          []string                   `json:"logs,omitempty"`
	UnitsConsumed uint64                     `json:"units_consumed,omitempty"`
}

// InfraCheckOutcome is the result of one infrastructure self-check. A
// failing check is an operational problem, never a security verdict.
type InfraCheckOutcome struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Outcome is the closed sum of the two result kinds: exactly one of
// Attack and InfraCheck is set.
type Outcome struct {
	Attack     *AttackOutcome     `json:"attack,omitempty"`
	InfraCheck *InfraCheckOutcome `json:"infra_check,omitempty"`
}

// TestResult is one row of the suite report.
type TestResult struct {
	ScenarioName    string          `json:"scenario_name"`
	ScenarioID      string          `json:"scenario_id"`
	Category        detect.Category `json:"category"`
	TargetProgram   string          `json:"target_program"`
	Status          Status          `json:"status"`
	Passed          bool            `json:"passed"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
	Error           string          `json:"error,omitempty"`
	Details         string          `json:"details"`
	Timestamp       time.Time       `json:"timestamp"`
	Outcome         Outcome         `json:"outcome"`
}

// Severity returns the finding severity for failed attack scenarios,
// SeverityNone otherwise.
func (r *TestResult) Severity() detect.Severity {
	if r.Outcome.Attack != nil && r.Outcome.Attack.Report != nil {
		return r.Outcome.Attack.Report.Severity
	}
	return detect.SeverityNone
}

// Breakdown counts results for one category or program.
type Breakdown struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summary totals one run. Consumers counting buckets must include all
// four: passed + failed + skipped + errors == total. Errored results are
// operational failures, not verdicts, and are never folded into failed.
type Summary struct {
	Total           int       `json:"total"`
	Passed          int       `json:"passed"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	Errors          int       `json:"errors"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	TestDate        time.Time `json:"test_date"`
}

// TestSuiteReport is the immutable end-of-run report.
type TestSuiteReport struct {
	RunID             string                `json:"run_id"`
	Network           string                `json:"network"`
	Summary           Summary               `json:"summary"`
	Results           []TestResult          `json:"results"`
	CategoryBreakdown map[string]*Breakdown `json:"category_breakdown"`
	ProgramBreakdown  map[string]*Breakdown `json:"program_breakdown"`
	Recommendations   []string              `json:"recommendations"`
	SecurityScore     int                   `json:"security_score"`
}
