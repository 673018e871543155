// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"

	"github.com/dotandev/vigil/internal/tx"
)

// SPL token program account layouts (legacy token program, not token-2022).
const (
	tokenAccountSize = 165
	mintAccountSize  = 82
)

// decodeTokenAccount fills state from an SPL token account:
// mint[0:32], owner[32:64], amount u64 LE [64:72].
func decodeTokenAccount(state *AccountState, data []byte) {
	mint := tx.AddressFromBytes(data[0:32]).String()
	owner := tx.AddressFromBytes(data[32:64]).String()
	amount := readU64(data[64:72])

	state.TokenBalances = map[string]uint64{mint: amount}
	state.DecodedFields = map[string]string{
		"owner": owner,
		"mint":  mint,
	}
}

// decodeMintAccount fills state from an SPL mint:
// mint_authority COption<Pubkey> [0:36], supply u64 [36:44], decimals [44],
// freeze_authority COption<Pubkey> [46:82].
func decodeMintAccount(state *AccountState, data []byte) {
	fields := map[string]string{
		"total_supply": fmt.Sprintf("%d", readU64(data[36:44])),
		"decimals":     fmt.Sprintf("%d", data[44]),
	}
	if readU32(data[0:4]) == 1 {
		fields["mint_authority"] = tx.AddressFromBytes(data[4:36]).String()
	} else {
		fields["mint_authority"] = "none"
	}
	if readU32(data[46:50]) == 1 {
		fields["freeze_authority"] = tx.AddressFromBytes(data[50:82]).String()
	} else {
		fields["freeze_authority"] = "none"
	}
	state.DecodedFields = fields
}

func readU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func readU32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}
