// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package tx

import (
	"crypto/ed25519"
	"fmt"
)

// Address is a base58-encoded 32-byte account address.
type Address string

// Bytes returns the raw 32-byte form of the address.
func (a Address) Bytes() ([32]byte, error) {
	var out [32]byte
	raw, err := DecodeBase58(string(a))
	if err != nil {
		return out, fmt.Errorf("invalid address %q: %w", a, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid address %q: expected 32 bytes, got %d", a, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func (a Address) String() string { return string(a) }

// IsValid reports whether the address decodes to exactly 32 bytes.
func (a Address) IsValid() bool {
	_, err := a.Bytes()
	return err == nil
}

// AddressFromBytes converts raw key bytes into a base58 Address.
func AddressFromBytes(raw []byte) Address {
	return Address(EncodeBase58(raw))
}

// AddressFromPublicKey converts an ed25519 public key into an Address.
func AddressFromPublicKey(pub ed25519.PublicKey) Address {
	return AddressFromBytes(pub)
}

// AccountMeta describes how an instruction touches one account.
type AccountMeta struct {
	Address  Address `json:"address"`
	Signer   bool    `json:"signer"`
	Writable bool    `json:"writable"`
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID Address       `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// Transaction is an unsigned or signed legacy transaction: an ordered list
// of instructions sharing one account table and one recent blockhash.
type Transaction struct {
	Instructions    []Instruction `json:"instructions"`
	FeePayer        Address       `json:"fee_payer"`
	RecentBlockhash string        `json:"recent_blockhash"`

	signatures [][]byte
}

// NewTransaction creates an empty transaction for the given fee payer.
func NewTransaction(feePayer Address) *Transaction {
	return &Transaction{FeePayer: feePayer}
}

// Add appends an instruction and returns the transaction for chaining.
func (t *Transaction) Add(ins Instruction) *Transaction {
	t.Instructions = append(t.Instructions, ins)
	return t
}

// ProgramIDs returns the distinct program ids referenced by the
// transaction's instructions, in first-appearance order.
func (t *Transaction) ProgramIDs() []Address {
	seen := make(map[Address]bool)
	var out []Address
	for _, ins := range t.Instructions {
		if !seen[ins.ProgramID] {
			seen[ins.ProgramID] = true
			out = append(out, ins.ProgramID)
		}
	}
	return out
}

// WritableAccounts returns the union of writable account addresses
// referenced by the transaction's instructions, in first-appearance order.
// The fee payer is always writable.
func (t *Transaction) WritableAccounts() []Address {
	seen := make(map[Address]bool)
	var out []Address

	appendAddr := func(a Address) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	if t.FeePayer != "" {
		appendAddr(t.FeePayer)
	}
	for _, ins := range t.Instructions {
		for _, m := range ins.Accounts {
			if m.Writable {
				appendAddr(m.Address)
			}
		}
	}
	return out
}

// ReferencedAccounts returns every account address the transaction touches,
// including program ids, in first-appearance order.
func (t *Transaction) ReferencedAccounts() []Address {
	seen := make(map[Address]bool)
	var out []Address

	appendAddr := func(a Address) {
		if a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	appendAddr(t.FeePayer)
	for _, ins := range t.Instructions {
		for _, m := range ins.Accounts {
			appendAddr(m.Address)
		}
		appendAddr(ins.ProgramID)
	}
	return out
}
