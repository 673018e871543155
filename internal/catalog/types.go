// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the registry of on-chain programs under test.
// A target is registered once at startup and read-only afterwards; what a
// target can do is expressed through explicit capability interfaces rather
// than reflection over an IDL, so a scenario builder can ask for exactly
// the instruction surface it needs.
package catalog

import (
	"crypto/sha256"

	"github.com/dotandev/vigil/internal/tx"
)

// PrivilegedOpBuilder builds an instruction invoking an operation that only
// a protocol authority should be able to execute. Access-control scenarios
// call it with a non-privileged signer.
type PrivilegedOpBuilder interface {
	BuildPrivilegedOp(caller tx.Address) (tx.Instruction, error)
}

// TransferBuilder builds an instruction moving value out of a
// protocol-controlled source. Used by overflow and double-spend scenarios.
type TransferBuilder interface {
	BuildTransfer(from, to tx.Address, amount uint64) (tx.Instruction, error)
}

// ClaimBuilder builds an instruction claiming an entitlement (reward,
// inheritance payout, vested token). Reentrancy and double-claim scenarios
// chain several of these in one transaction.
type ClaimBuilder interface {
	BuildClaim(claimer tx.Address) (tx.Instruction, error)
}

// SwapBuilder builds a token swap instruction with a caller-chosen input
// amount, including degenerate amounts a validating program must reject.
type SwapBuilder interface {
	BuildSwap(trader tx.Address, amountIn uint64) (tx.Instruction, error)
}

// OracleUpdateBuilder builds an instruction feeding an externally-supplied
// value (price, randomness) into the program.
type OracleUpdateBuilder interface {
	BuildOracleUpdate(caller tx.Address, value int64) (tx.Instruction, error)
}

// FieldDecoder decodes the raw data of an account owned by the target
// program into named fields (authority, fee, lock flag). Snapshots use it
// so detection rules can compare protocol state by field name instead of
// raw bytes.
type FieldDecoder interface {
	DecodeFields(data []byte) map[string]string
}

// TargetProgram is one program under test: a deployed address plus the
// instruction surface scenarios can build against. Immutable once
// registered.
type TargetProgram struct {
	Name     string
	Address  tx.Address
	Accounts map[string]tx.Address

	surface interface{}
}

// Surface returns the capability implementation for this target. Callers
// type-assert against the capability interfaces above.
func (t *TargetProgram) Surface() interface{} {
	return t.surface
}

// Account returns a named protocol account (config PDA, vault, pool) and
// whether the catalog entry defines it.
func (t *TargetProgram) Account(name string) (tx.Address, bool) {
	addr, ok := t.Accounts[name]
	return addr, ok
}

// Capabilities lists the capability interface names the target's surface
// implements, for display and for scenario applicability checks.
func (t *TargetProgram) Capabilities() []string {
	var caps []string
	if _, ok := t.surface.(PrivilegedOpBuilder); ok {
		caps = append(caps, "privileged_op")
	}
	if _, ok := t.surface.(TransferBuilder); ok {
		caps = append(caps, "transfer")
	}
	if _, ok := t.surface.(ClaimBuilder); ok {
		caps = append(caps, "claim")
	}
	if _, ok := t.surface.(SwapBuilder); ok {
		caps = append(caps, "swap")
	}
	if _, ok := t.surface.(OracleUpdateBuilder); ok {
		caps = append(caps, "oracle_update")
	}
	if _, ok := t.surface.(FieldDecoder); ok {
		caps = append(caps, "field_decode")
	}
	return caps
}

// anchorDiscriminator computes the 8-byte instruction discriminator used by
// Anchor programs: the first 8 bytes of sha256("global:<method>").
func anchorDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

// appendU64 appends a little-endian u64, the layout Anchor uses for
// instruction arguments.
func appendU64(data []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		data = append(data, byte(v>>(8*i)))
	}
	return data
}

func appendI64(data []byte, v int64) []byte {
	return appendU64(data, uint64(v))
}
