// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package suite

import (
	"math"
	"time"
)

// Aggregate folds a completed result sequence into the suite report.
// The report is immutable after this returns.
func Aggregate(runID, network string, results []TestResult, executionTime time.Duration) *TestSuiteReport {
	report := &TestSuiteReport{
		RunID:             runID,
		Network:           network,
		Results:           append([]TestResult(nil), results...),
		CategoryBreakdown: make(map[string]*Breakdown),
		ProgramBreakdown:  make(map[string]*Breakdown),
		Summary: Summary{
			ExecutionTimeMs: executionTime.Milliseconds(),
			TestDate:        time.Now().UTC(),
		},
	}

	seenRecommendation := make(map[string]bool)

	for _, r := range report.Results {
		report.Summary.Total++
		switch r.Status {
		case StatusPassed:
			report.Summary.Passed++
		case StatusFailed:
			report.Summary.Failed++
		case StatusSkipped:
			report.Summary.Skipped++
		case StatusError:
			report.Summary.Errors++
		}

		bump(report.CategoryBreakdown, string(r.Category), r.Status)
		if r.TargetProgram != "" {
			bump(report.ProgramBreakdown, r.TargetProgram, r.Status)
		}

		if r.Status == StatusFailed && r.Outcome.Attack != nil && r.Outcome.Attack.Report != nil {
			for _, rec := range r.Outcome.Attack.Report.Recommendations {
				if !seenRecommendation[rec] {
					seenRecommendation[rec] = true
					report.Recommendations = append(report.Recommendations, rec)
				}
			}
		}
	}

	report.SecurityScore = securityScore(report.Summary.Passed, report.Summary.Total)
	return report
}

// securityScore is round(100 * passed / total), 0 for an empty run.
func securityScore(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

func bump(m map[string]*Breakdown, key string, status Status) {
	b := m[key]
	if b == nil {
		b = &Breakdown{}
		m[key] = b
	}
	b.Total++
	switch status {
	case StatusPassed:
		b.Passed++
	case StatusFailed:
		b.Failed++
	}
}
