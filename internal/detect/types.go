// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package detect evaluates post-simulation evidence against a registry of
// detection rules. Rules are pure predicates over a read-only context; the
// engine always runs the full set and returns every match, so independent
// findings corroborate each other instead of masking each other.
package detect

import (
	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/tx"
)

// Severity of a finding. Ordered: critical > high > medium > low.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric ordering of the severity, 0 for none.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category of an attack or finding.
type Category string

const (
	CategoryAccessControl Category = "access_control"
	CategoryOverflow      Category = "overflow"
	CategoryReentrancy    Category = "reentrancy"
	CategoryDoubleSpend   Category = "double_spend"
	CategoryDOS           Category = "dos"
	CategoryOracle        Category = "oracle"
	CategoryCrossProgram  Category = "cross_program"
	CategoryValidation    Category = "validation"
	CategoryLogic         Category = "logic"
)

// Categories lists every known category, in display order.
func Categories() []Category {
	return []Category{
		CategoryAccessControl,
		CategoryOverflow,
		CategoryReentrancy,
		CategoryDoubleSpend,
		CategoryDOS,
		CategoryOracle,
		CategoryCrossProgram,
		CategoryValidation,
		CategoryLogic,
	}
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories() {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Context is everything a rule may inspect about one scenario execution.
// Built once, read-only.
type Context struct {
	Pre             *snapshot.Snapshot
	Post            *snapshot.Snapshot
	Transaction     *tx.Transaction
	Logs            []string
	ExecutionTimeMs int64
	UnitsConsumed   uint64
	SimulationErr   string
}

// Rule is one registered detection predicate. Evaluate must be stateless
// and side-effect free.
type Rule struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Severity    Severity
	Evaluate    func(*Context) bool
}

// Match records that one rule fired against a context.
type Match struct {
	Rule Rule
}

// Descriptor is the serializable shape of a rule, for the catalog export.
type Descriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
}
