// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package score turns raw rule matches into a vulnerability report. The
// scoring model is deliberately simple and monotone: every independent
// corroborating rule adds confidence, and the report's severity is the
// worst severity among the matches.
package score

import (
	"fmt"
	"strings"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/tx"
)

const confidencePerMatch = 20

// VulnerabilityReport is the scored result of one scenario execution.
type VulnerabilityReport struct {
	ScenarioID         string          `json:"scenario_id"`
	VulnerabilityFound bool            `json:"vulnerability_found"`
	Confidence         int             `json:"confidence"`
	Severity           detect.Severity `json:"severity,omitempty"`
	Details            string          `json:"details"`
	Recommendations    []string        `json:"recommendations,omitempty"`
	AffectedAccounts   []string        `json:"affected_accounts,omitempty"`
	ExploitPath        []string        `json:"exploit_path,omitempty"`
}

// remediation maps a finding category to its fixed remediation advice.
var remediation = map[detect.Category]string{
	detect.CategoryAccessControl: "verify signer and authority constraints on every privileged instruction",
	detect.CategoryOverflow:      "use checked arithmetic for every balance and supply computation",
	detect.CategoryReentrancy:    "implement reentrancy guards and checks-effects-interactions ordering",
	detect.CategoryDoubleSpend:   "consume and invalidate funding sources atomically before paying out",
	detect.CategoryDOS:           "bound instruction counts, account lists and compute per transaction",
	detect.CategoryOracle:        "validate oracle freshness and clamp externally supplied values",
	detect.CategoryCrossProgram:  "whitelist callable programs and validate CPI return state",
	detect.CategoryValidation:    "reject zero, maximum and out-of-range arguments before any state change",
	detect.CategoryLogic:         "reconcile balance invariants before and after every value transfer",
}

// RecommendationFor returns the fixed remediation string for a category.
func RecommendationFor(category detect.Category) string {
	return remediation[category]
}

// Score builds the report for one scenario execution. With no matches the
// report is a clean bill: vulnerability not found, zero confidence and no
// severity.
func Score(scenarioID string, matches []detect.Match, transaction *tx.Transaction) *VulnerabilityReport {
	report := &VulnerabilityReport{
		ScenarioID:         scenarioID,
		VulnerabilityFound: len(matches) > 0,
		Severity:           detect.SeverityNone,
	}

	if transaction != nil {
		for _, addr := range transaction.WritableAccounts() {
			report.AffectedAccounts = append(report.AffectedAccounts, addr.String())
		}
	}

	if len(matches) == 0 {
		report.Details = "no detection rule matched"
		return report
	}

	confidence := len(matches) * confidencePerMatch
	if confidence > 100 {
		confidence = 100
	}
	report.Confidence = confidence

	seenRecommendation := make(map[string]bool)
	var names []string
	for _, m := range matches {
		rule := m.Rule
		if rule.Severity.Rank() > report.Severity.Rank() {
			report.Severity = rule.Severity
		}
		report.ExploitPath = append(report.ExploitPath, fmt.Sprintf("%s: %s", rule.Name, rule.Description))
		names = append(names, rule.Name)

		if rec := remediation[rule.Category]; rec != "" && !seenRecommendation[rec] {
			seenRecommendation[rec] = true
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	report.Details = fmt.Sprintf("%d rule(s) matched: %s", len(matches), strings.Join(names, ", "))
	return report
}
