// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// AccountInfo is the decoded value of a getAccountInfo response.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       []byte `json:"-"`
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// rawAccount matches the wire shape with base64-encoded data.
type rawAccount struct {
	Lamports   uint64          `json:"lamports"`
	Owner      string          `json:"owner"`
	Data       json.RawMessage `json:"data"`
	Executable bool            `json:"executable"`
	RentEpoch  uint64          `json:"rentEpoch"`
}

func (r *rawAccount) decode() (*AccountInfo, error) {
	info := &AccountInfo{
		Lamports:   r.Lamports,
		Owner:      r.Owner,
		Executable: r.Executable,
		RentEpoch:  r.RentEpoch,
	}

	// data arrives as ["<base64>", "base64"].
	var tuple []string
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &tuple); err == nil && len(tuple) >= 1 {
			raw, err := base64.StdEncoding.DecodeString(tuple[0])
			if err != nil {
				return nil, fmt.Errorf("invalid account data encoding: %w", err)
			}
			info.Data = raw
		}
	}
	return info, nil
}

// ProgramAccount pairs an address with its account info, as returned by
// getProgramAccounts.
type ProgramAccount struct {
	Address string
	Info    *AccountInfo
}

// TokenBalance is one SPL token holding of an owner.
type TokenBalance struct {
	Mint     string
	Amount   uint64
	Decimals uint8
}

// LatestBlockhash is the value of a getLatestBlockhash response.
type LatestBlockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SimulateResult is the value of a simulateTransaction response. Err is nil
// when the transaction would have executed without error; otherwise it holds
// the cluster's structured error value (e.g. {"InstructionError":[0,...]}).
type SimulateResult struct {
	Err           interface{} `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed"`
}

// ErrString renders the structured simulation error for logs and reports.
func (s *SimulateResult) ErrString() string {
	if s == nil || s.Err == nil {
		return ""
	}
	if str, ok := s.Err.(string); ok {
		return str
	}
	b, err := json.Marshal(s.Err)
	if err != nil {
		return fmt.Sprintf("%v", s.Err)
	}
	return string(b)
}

// Failed reports whether the simulated transaction was rejected.
func (s *SimulateResult) Failed() bool {
	return s != nil && s.Err != nil
}
