// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package simulator executes candidate attack transactions. The default
// implementation is strictly non-committing: the transaction goes through
// the node's dry-run path and never enters a block. The committing variant
// exists for throwaway local validators only and cannot be constructed
// unless the operator sets the dangerous opt-in flag.
package simulator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/telemetry"
	"github.com/dotandev/vigil/internal/tx"
)

// Outcome is the result of one simulation. Succeeded means the program
// executed the transaction without error; for an attack attempt that is
// usually the bad case. Err carries the program-level error string and is
// empty when Succeeded is true.
type Outcome struct {
	Succeeded     bool          `json:"succeeded"`
	UnitsConsumed uint64        `json:"units_consumed"`
	Logs          []string      `json:"logs"`
	Err           string        `json:"err,omitempty"`
	Duration      time.Duration `json:"duration"`
	Signature     string        `json:"signature,omitempty"`
}

// Simulator runs a built transaction against the connected network.
// Implementations must not mutate the transaction beyond setting the
// recent blockhash and signatures.
type Simulator interface {
	Simulate(ctx context.Context, transaction *tx.Transaction, signers ...tx.MessageSigner) (*Outcome, error)
}

// DryRun is the default simulator. It relies on the node's simulateTransaction
// path with signature verification disabled, so missing signer slots are
// zero-filled and no ledger state can change.
type DryRun struct {
	client chain.ReadClient
}

// NewDryRun returns a non-committing simulator.
func NewDryRun(client chain.ReadClient) *DryRun {
	return &DryRun{client: client}
}

func (d *DryRun) Simulate(ctx context.Context, transaction *tx.Transaction, signers ...tx.MessageSigner) (*Outcome, error) {
	return simulate(ctx, d.client, transaction, signers)
}

func simulate(ctx context.Context, client chain.ReadClient, transaction *tx.Transaction, signers []tx.MessageSigner) (*Outcome, error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "simulate")
	defer span.End()

	blockhash, err := client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	transaction.RecentBlockhash = blockhash.Blockhash

	if err := transaction.Sign(signers...); err != nil {
		return nil, errors.WrapSimulationFailed(err)
	}
	encoded, err := transaction.EncodeBase64()
	if err != nil {
		return nil, errors.WrapSimulationFailed(err)
	}

	start := time.Now()
	result, err := client.SimulateTransaction(ctx, encoded)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	outcome := &Outcome{
		Succeeded:     !result.Failed(),
		UnitsConsumed: result.UnitsConsumed,
		Logs:          result.Logs,
		Err:           result.ErrString(),
		Duration:      elapsed,
	}
	span.SetAttributes(
		attribute.Bool("simulation.succeeded", outcome.Succeeded),
		attribute.Int64("simulation.units_consumed", int64(outcome.UnitsConsumed)),
	)
	logger.Logger.Debug("simulation complete",
		"succeeded", outcome.Succeeded,
		"units", outcome.UnitsConsumed,
		"logs", len(outcome.Logs),
		"duration", elapsed)
	return outcome, nil
}

// Committing simulates first, then submits the transaction for real. Only
// for disposable local validators; constructing one requires the dangerous
// opt-in so it can never be reached through default configuration.
type Committing struct {
	client chain.CommitClient
}

// NewCommitting returns a committing simulator, or ErrCommitNotAllowed
// when the opt-in flag is not set.
func NewCommitting(client chain.CommitClient, dangerousAllowCommit bool) (*Committing, error) {
	if !dangerousAllowCommit {
		return nil, errors.ErrCommitNotAllowed
	}
	logger.Logger.Warn("committing simulator enabled: transactions WILL be submitted to the connected network")
	return &Committing{client: client}, nil
}

func (c *Committing) Simulate(ctx context.Context, transaction *tx.Transaction, signers ...tx.MessageSigner) (*Outcome, error) {
	outcome, err := simulate(ctx, c.client, transaction, signers)
	if err != nil {
		return nil, err
	}
	// A dry-run failure means the attack was blocked; nothing to submit.
	if !outcome.Succeeded {
		return outcome, nil
	}

	encoded, err := transaction.EncodeBase64()
	if err != nil {
		return nil, errors.WrapSimulationFailed(err)
	}
	sig, err := c.client.SendTransaction(ctx, encoded)
	if err != nil {
		return nil, err
	}
	outcome.Signature = sig
	return outcome, nil
}
