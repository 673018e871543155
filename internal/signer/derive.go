// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"crypto/sha256"

	"github.com/dotandev/vigil/internal/tx"
)

// DeriveAddress computes a deterministic program-derived address from the
// given seeds and bump: sha256(seeds || bump || program || marker). The
// canonical on-chain bump for a live account comes from the target catalog;
// this helper exists so scenario builders can reference derived accounts
// (vaults, registrations, access records) without an extra RPC round trip.
func DeriveAddress(program tx.Address, bump byte, seeds ...[]byte) (tx.Address, error) {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte{bump})

	raw, err := program.Bytes()
	if err != nil {
		return "", err
	}
	h.Write(raw[:])
	h.Write([]byte("ProgramDerivedAddress"))

	return tx.AddressFromBytes(h.Sum(nil)), nil
}
