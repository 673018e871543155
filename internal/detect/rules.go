// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package detect

import (
	"math"
	"strings"
	"time"

	"github.com/dotandev/vigil/internal/snapshot"
)

// Detection thresholds. Tuned against the protocol family this tool
// audits; adjust here, not at call sites.
const (
	balanceChangeFraction = 0.10
	dosUnitsThreshold     = 1_000_000
	dosInstructionLimit   = 10
	dosExecutionLimitMs   = 30_000
	crossProgramMinIDs    = 3
	crossProgramMinCPIs   = 5
	timingAnomalyWindow   = time.Hour
)

var overflowMarkers = []string{
	"overflow",
	"underflow",
	"attempt to subtract with overflow",
	"attempt to add with overflow",
}

var privilegeFields = []string{"admin", "owner", "authority"}

var invariantFields = []string{"total_supply", "decimals", "mint_authority", "freeze_authority"}

// NewDefaultRegistry returns a registry loaded with the built-in rules.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range builtinRules() {
		r.MustRegister(rule)
	}
	return r
}

func builtinRules() []Rule {
	return []Rule{
		{
			ID:          "unexpected-balance-change",
			Name:        "Unexpected balance change",
			Description: "an account balance moved by more than 10% of its pre-execution value",
			Category:    CategoryLogic,
			Severity:    SeverityCritical,
			Evaluate:    evalBalanceChange,
		},
		{
			ID:          "privilege-escalation",
			Name:        "Privilege escalation",
			Description: "an admin, owner or authority field changed during execution",
			Category:    CategoryAccessControl,
			Severity:    SeverityCritical,
			Evaluate:    evalPrivilegeEscalation,
		},
		{
			ID:          "reentrancy-pattern",
			Name:        "Reentrancy pattern",
			Description: "the same instruction invocation appears more than once in one transaction's logs",
			Category:    CategoryReentrancy,
			Severity:    SeverityHigh,
			Evaluate:    evalReentrancy,
		},
		{
			ID:          "arithmetic-overflow",
			Name:        "Arithmetic overflow",
			Description: "execution logs contain overflow or underflow markers",
			Category:    CategoryOverflow,
			Severity:    SeverityHigh,
			Evaluate:    evalOverflow,
		},
		{
			ID:          "resource-exhaustion",
			Name:        "Resource exhaustion",
			Description: "compute, instruction count or execution time exceeded the protocol budget",
			Category:    CategoryDOS,
			Severity:    SeverityMedium,
			Evaluate:    evalDOS,
		},
		{
			ID:          "data-manipulation",
			Name:        "Data manipulation",
			Description: "a protocol invariant field (supply, decimals, mint or freeze authority) changed",
			Category:    CategoryValidation,
			Severity:    SeverityHigh,
			Evaluate:    evalDataManipulation,
		},
		{
			ID:          "timing-anomaly",
			Name:        "Timing anomaly",
			Description: "snapshot timestamps are out of order or unreasonably far apart",
			Category:    CategoryOracle,
			Severity:    SeverityMedium,
			Evaluate:    evalTimingAnomaly,
		},
		{
			ID:          "cross-program-exploit",
			Name:        "Cross-program exploit",
			Description: "many distinct programs combined with heavy cross-program invocation",
			Category:    CategoryCrossProgram,
			Severity:    SeverityCritical,
			Evaluate:    evalCrossProgram,
		},
	}
}

func evalBalanceChange(ctx *Context) bool {
	if ctx.Pre == nil || ctx.Post == nil {
		return false
	}
	for _, addr := range snapshot.CommonAccounts(ctx.Pre, ctx.Post) {
		pre, _ := ctx.Pre.Account(addr)
		post, _ := ctx.Post.Account(addr)

		if exceedsFraction(pre.Lamports, post.Lamports) {
			return true
		}
		for mint, preAmount := range pre.TokenBalances {
			if exceedsFraction(preAmount, post.TokenBalances[mint]) {
				return true
			}
		}
	}
	return false
}

// exceedsFraction reports |post-pre| > balanceChangeFraction * pre without
// floating point: delta*10 > pre for a 10% threshold. A zero pre flags any
// nonzero post.
func exceedsFraction(pre, post uint64) bool {
	var delta uint64
	if post > pre {
		delta = post - pre
	} else {
		delta = pre - post
	}
	// delta*10 wraps for deltas past MaxUint64/10; such a delta exceeds
	// 10% of any representable pre balance.
	if delta > math.MaxUint64/10 {
		return true
	}
	return delta*10 > pre
}

func evalPrivilegeEscalation(ctx *Context) bool {
	return fieldChanged(ctx, privilegeFields)
}

func evalDataManipulation(ctx *Context) bool {
	return fieldChanged(ctx, invariantFields)
}

func fieldChanged(ctx *Context, names []string) bool {
	if ctx.Pre == nil || ctx.Post == nil {
		return false
	}
	for _, addr := range snapshot.CommonAccounts(ctx.Pre, ctx.Post) {
		pre, _ := ctx.Pre.Account(addr)
		post, _ := ctx.Post.Account(addr)
		for _, field := range names {
			preVal, preOK := pre.DecodedFields[field]
			postVal, postOK := post.DecodedFields[field]
			if preOK && postOK && preVal != postVal {
				return true
			}
		}
	}
	return false
}

func evalReentrancy(ctx *Context) bool {
	seen := make(map[string]int)
	for _, line := range ctx.Logs {
		if !strings.Contains(line, "Instruction:") {
			continue
		}
		seen[line]++
		if seen[line] > 1 {
			return true
		}
	}
	return false
}

func evalOverflow(ctx *Context) bool {
	for _, line := range ctx.Logs {
		lower := strings.ToLower(line)
		for _, marker := range overflowMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func evalDOS(ctx *Context) bool {
	if ctx.UnitsConsumed > dosUnitsThreshold {
		return true
	}
	if ctx.Transaction != nil && len(ctx.Transaction.Instructions) > dosInstructionLimit {
		return true
	}
	return ctx.ExecutionTimeMs > dosExecutionLimitMs
}

func evalTimingAnomaly(ctx *Context) bool {
	if ctx.Pre == nil || ctx.Post == nil {
		return false
	}
	elapsed := ctx.Post.CapturedAt.Sub(ctx.Pre.CapturedAt)
	return elapsed < 0 || elapsed > timingAnomalyWindow
}

// evalCrossProgram counts nested invocations: "invoke [n]" with n >= 2
// marks a cross-program call, the depth-1 lines are the transaction's own
// top-level instructions.
func evalCrossProgram(ctx *Context) bool {
	if ctx.Transaction == nil || len(ctx.Transaction.ProgramIDs()) <= crossProgramMinIDs {
		return false
	}
	cpis := 0
	for _, line := range ctx.Logs {
		if strings.Contains(line, "invoke [") && !strings.Contains(line, "invoke [1]") {
			cpis++
		}
	}
	return cpis > crossProgramMinCPIs
}

