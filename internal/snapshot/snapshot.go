// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package snapshot captures point-in-time account state around a scenario
// execution. A snapshot is a value object: built once, never mutated, and
// compared field-by-field by the detection rules.
package snapshot

import (
	"context"
	"time"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/tx"
)

// AccountState is the observed state of one account at capture time.
type AccountState struct {
	Address       tx.Address        `json:"address"`
	Exists        bool              `json:"exists"`
	Lamports      uint64            `json:"lamports"`
	Owner         string            `json:"owner,omitempty"`
	TokenBalances map[string]uint64 `json:"token_balances,omitempty"`
	DecodedFields map[string]string `json:"decoded_fields,omitempty"`
}

// Snapshot is the state of every account a scenario touches, taken either
// before or after its simulation.
type Snapshot struct {
	Accounts   map[tx.Address]AccountState `json:"accounts"`
	CapturedAt time.Time                   `json:"captured_at"`
}

// Account returns the captured state for an address.
func (s *Snapshot) Account(addr tx.Address) (AccountState, bool) {
	st, ok := s.Accounts[addr]
	return st, ok
}

// CommonAccounts returns the addresses present (and existing) in both
// snapshots, the population detection rules compare over.
func CommonAccounts(pre, post *Snapshot) []tx.Address {
	var out []tx.Address
	for addr, preState := range pre.Accounts {
		if !preState.Exists {
			continue
		}
		if postState, ok := post.Accounts[addr]; ok && postState.Exists {
			out = append(out, addr)
		}
	}
	return out
}

// Capturer reads account state through a read-only RPC client.
type Capturer struct {
	client chain.ReadClient
}

// NewCapturer returns a capturer backed by the given client.
func NewCapturer(client chain.ReadClient) *Capturer {
	return &Capturer{client: client}
}

// Capture reads the given addresses in one batch. Accounts that do not
// exist are recorded with Exists=false rather than treated as an error:
// attack scenarios legitimately reference accounts that are never created.
// When target is non-nil, accounts owned by the target program are decoded
// through its field decoder.
func (c *Capturer) Capture(ctx context.Context, addresses []tx.Address, target *catalog.TargetProgram) (*Snapshot, error) {
	snap := &Snapshot{
		Accounts:   make(map[tx.Address]AccountState, len(addresses)),
		CapturedAt: time.Now().UTC(),
	}
	if len(addresses) == 0 {
		return snap, nil
	}

	raw := make([]string, 0, len(addresses))
	for _, a := range addresses {
		raw = append(raw, a.String())
	}
	infos, err := c.client.GetMultipleAccounts(ctx, raw)
	if err != nil {
		return nil, err
	}

	var decoder catalog.FieldDecoder
	if target != nil {
		decoder, _ = target.Surface().(catalog.FieldDecoder)
	}

	for _, addr := range addresses {
		info, ok := infos[addr.String()]
		if !ok || info == nil {
			snap.Accounts[addr] = AccountState{Address: addr}
			continue
		}
		state := AccountState{
			Address:  addr,
			Exists:   true,
			Lamports: info.Lamports,
			Owner:    info.Owner,
		}
		switch {
		case info.Owner == chain.TokenProgramID && len(info.Data) == tokenAccountSize:
			decodeTokenAccount(&state, info.Data)
		case info.Owner == chain.TokenProgramID && len(info.Data) == mintAccountSize:
			decodeMintAccount(&state, info.Data)
		case decoder != nil && target != nil && info.Owner == target.Address.String():
			state.DecodedFields = decoder.DecodeFields(info.Data)
		}
		snap.Accounts[addr] = state
	}

	logger.Logger.Debug("snapshot captured",
		"accounts", len(addresses),
		"existing", countExisting(snap))
	return snap, nil
}

func countExisting(s *Snapshot) int {
	n := 0
	for _, st := range s.Accounts {
		if st.Exists {
			n++
		}
	}
	return n
}
