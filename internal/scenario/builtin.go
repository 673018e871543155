// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"
	"math"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/tx"
)

// dosInstructionCount is one past the protocol's per-transaction
// instruction budget, so a program without its own limit check gets
// flagged by the resource-exhaustion rule.
const dosInstructionCount = 11

func surfaceAs[T any](target *catalog.TargetProgram) (T, bool) {
	s, ok := target.Surface().(T)
	return s, ok
}

// NewDefaultRegistry returns the built-in attack library.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range builtinScenarios() {
		r.MustRegister(s)
	}
	return r
}

func builtinScenarios() []*Scenario {
	return []*Scenario{
		{
			ID:          "unauthorized-admin-call",
			Name:        "Unauthorized admin call",
			Description: "invoke a privileged operation signed only by a throwaway identity",
			Category:    detect.CategoryAccessControl,
			Severity:    detect.SeverityCritical,
			AppliesTo:   hasCapability[catalog.PrivilegedOpBuilder],
			Build:       buildUnauthorizedAdmin,
		},
		{
			ID:          "zero-amount-swap",
			Name:        "Zero amount swap",
			Description: "submit a swap with amount_in = 0, which input validation must reject",
			Category:    detect.CategoryValidation,
			Severity:    detect.SeverityMedium,
			AppliesTo:   hasCapability[catalog.SwapBuilder],
			Build: func(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
				return buildSwap(target, ctx, 0)
			},
		},
		{
			ID:          "max-amount-swap",
			Name:        "Maximum amount swap",
			Description: "swap the maximum representable amount to probe arithmetic edge cases",
			Category:    detect.CategoryOverflow,
			Severity:    detect.SeverityHigh,
			AppliesTo:   hasCapability[catalog.SwapBuilder],
			Build: func(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
				return buildSwap(target, ctx, math.MaxUint64)
			},
		},
		{
			ID:          "overdraw-transfer",
			Name:        "Overdraw transfer",
			Description: "transfer far more than the source balance to probe unchecked subtraction",
			Category:    detect.CategoryOverflow,
			Severity:    detect.SeverityHigh,
			AppliesTo:   hasCapability[catalog.TransferBuilder],
			Build:       buildOverdrawTransfer,
		},
		{
			ID:          "double-spend-transfer",
			Name:        "Double spend transfer",
			Description: "consume the same funding source twice within one atomic transaction",
			Category:    detect.CategoryDoubleSpend,
			Severity:    detect.SeverityHigh,
			AppliesTo:   hasCapability[catalog.TransferBuilder],
			Build:       buildDoubleSpend,
		},
		{
			ID:          "reentrant-claim",
			Name:        "Reentrant claim",
			Description: "chain two claims touching the same entitlement in one transaction",
			Category:    detect.CategoryReentrancy,
			Severity:    detect.SeverityHigh,
			AppliesTo:   hasCapability[catalog.ClaimBuilder],
			Build:       buildReentrantClaim,
		},
		{
			ID:          "instruction-flood",
			Name:        "Instruction flood",
			Description: "pack the transaction past the protocol's instruction budget",
			Category:    detect.CategoryDOS,
			Severity:    detect.SeverityMedium,
			AppliesTo:   hasAnyBuilder,
			Build:       buildInstructionFlood,
		},
		{
			ID:          "oracle-injection",
			Name:        "Oracle injection",
			Description: "feed an extreme externally-supplied value from a non-authority caller",
			Category:    detect.CategoryOracle,
			Severity:    detect.SeverityHigh,
			AppliesTo:   hasCapability[catalog.OracleUpdateBuilder],
			Build:       buildOracleInjection,
		},
		{
			ID:           "cross-program-chain",
			Name:         "Cross program chain",
			Description:  "chain instructions across every cataloged program sharing token flows",
			Category:     detect.CategoryCrossProgram,
			Severity:     detect.SeverityCritical,
			SpansCatalog: true,
			Build:        buildCrossProgramChain,
		},
	}
}

func hasCapability[T any](target *catalog.TargetProgram) bool {
	_, ok := target.Surface().(T)
	return ok
}

func hasAnyBuilder(target *catalog.TargetProgram) bool {
	return hasCapability[catalog.ClaimBuilder](target) ||
		hasCapability[catalog.SwapBuilder](target) ||
		hasCapability[catalog.TransferBuilder](target) ||
		hasCapability[catalog.PrivilegedOpBuilder](target)
}

func buildUnauthorizedAdmin(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.PrivilegedOpBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("unauthorized-admin-call", fmt.Errorf("target %s has no privileged operations", target.Name))
	}
	ins, err := builder.BuildPrivilegedOp(ctx.Attacker.Address())
	if err != nil {
		return nil, errors.WrapScenarioBuild("unauthorized-admin-call", err)
	}
	return tx.NewTransaction(ctx.Attacker.Address()).Add(ins), nil
}

func buildSwap(target *catalog.TargetProgram, ctx *BuildContext, amountIn uint64) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.SwapBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("swap", fmt.Errorf("target %s has no swap surface", target.Name))
	}
	ins, err := builder.BuildSwap(ctx.Attacker.Address(), amountIn)
	if err != nil {
		return nil, errors.WrapScenarioBuild("swap", err)
	}
	return tx.NewTransaction(ctx.Attacker.Address()).Add(ins), nil
}

func buildOverdrawTransfer(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.TransferBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("overdraw-transfer", fmt.Errorf("target %s has no transfer surface", target.Name))
	}
	ins, err := builder.BuildTransfer(ctx.Attacker.Address(), ctx.Accomplice.Address(), math.MaxUint64)
	if err != nil {
		return nil, errors.WrapScenarioBuild("overdraw-transfer", err)
	}
	return tx.NewTransaction(ctx.Attacker.Address()).Add(ins), nil
}

func buildDoubleSpend(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.TransferBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("double-spend-transfer", fmt.Errorf("target %s has no transfer surface", target.Name))
	}
	transaction := tx.NewTransaction(ctx.Attacker.Address())
	for i := 0; i < 2; i++ {
		ins, err := builder.BuildTransfer(ctx.Attacker.Address(), ctx.Accomplice.Address(), 1_000_000)
		if err != nil {
			return nil, errors.WrapScenarioBuild("double-spend-transfer", err)
		}
		transaction.Add(ins)
	}
	return transaction, nil
}

func buildReentrantClaim(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.ClaimBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("reentrant-claim", fmt.Errorf("target %s has no claim surface", target.Name))
	}
	transaction := tx.NewTransaction(ctx.Attacker.Address())
	for i := 0; i < 2; i++ {
		ins, err := builder.BuildClaim(ctx.Attacker.Address())
		if err != nil {
			return nil, errors.WrapScenarioBuild("reentrant-claim", err)
		}
		transaction.Add(ins)
	}
	return transaction, nil
}

func buildInstructionFlood(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	one, err := buildAnyInstruction(target, ctx)
	if err != nil {
		return nil, errors.WrapScenarioBuild("instruction-flood", err)
	}
	transaction := tx.NewTransaction(ctx.Attacker.Address())
	for i := 0; i < dosInstructionCount; i++ {
		transaction.Add(one)
	}
	return transaction, nil
}

// buildAnyInstruction picks the cheapest available builder on the target.
func buildAnyInstruction(target *catalog.TargetProgram, ctx *BuildContext) (tx.Instruction, error) {
	if b, ok := surfaceAs[catalog.ClaimBuilder](target); ok {
		return b.BuildClaim(ctx.Attacker.Address())
	}
	if b, ok := surfaceAs[catalog.SwapBuilder](target); ok {
		return b.BuildSwap(ctx.Attacker.Address(), 1)
	}
	if b, ok := surfaceAs[catalog.TransferBuilder](target); ok {
		return b.BuildTransfer(ctx.Attacker.Address(), ctx.Accomplice.Address(), 1)
	}
	if b, ok := surfaceAs[catalog.PrivilegedOpBuilder](target); ok {
		return b.BuildPrivilegedOp(ctx.Attacker.Address())
	}
	return tx.Instruction{}, fmt.Errorf("target %s has no usable instruction builders", target.Name)
}

func buildOracleInjection(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	builder, ok := surfaceAs[catalog.OracleUpdateBuilder](target)
	if !ok {
		return nil, errors.WrapScenarioBuild("oracle-injection", fmt.Errorf("target %s has no oracle surface", target.Name))
	}
	ins, err := builder.BuildOracleUpdate(ctx.Attacker.Address(), math.MaxInt64)
	if err != nil {
		return nil, errors.WrapScenarioBuild("oracle-injection", err)
	}
	return tx.NewTransaction(ctx.Attacker.Address()).Add(ins), nil
}

// buildCrossProgramChain spans the whole catalog: one instruction per
// target that exposes any builder, all in a single atomic transaction.
func buildCrossProgramChain(target *catalog.TargetProgram, ctx *BuildContext) (*tx.Transaction, error) {
	if ctx.Registry == nil {
		return nil, errors.WrapScenarioBuild("cross-program-chain", fmt.Errorf("no target registry in build context"))
	}
	transaction := tx.NewTransaction(ctx.Attacker.Address())
	for _, other := range ctx.Registry.List() {
		ins, err := buildAnyInstruction(other, ctx)
		if err != nil {
			continue
		}
		transaction.Add(ins)
	}
	if len(transaction.Instructions) < 2 {
		return nil, errors.WrapScenarioBuild("cross-program-chain", fmt.Errorf("catalog has fewer than two chainable programs"))
	}
	return transaction, nil
}
