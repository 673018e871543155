// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"sync"

	"github.com/dotandev/vigil/internal/tx"
)

// Mock is a scripted Simulator for tests. Outcomes are returned in order;
// after they run out, Default applies. A non-nil Err short-circuits.
type Mock struct {
	mu       sync.Mutex
	Outcomes []*Outcome
	Default  *Outcome
	Err      error

	Calls        int
	Transactions []*tx.Transaction
}

// NewMock returns a mock whose default outcome is a blocked attack
// (simulation error, nothing consumed).
func NewMock() *Mock {
	return &Mock{
		Default: &Outcome{
			Succeeded: false,
			Err:       `{"InstructionError":[0,{"Custom":6000}]}`,
			Logs:      []string{"Program log: Error: Unauthorized"},
		},
	}
}

func (m *Mock) Simulate(ctx context.Context, transaction *tx.Transaction, signers ...tx.MessageSigner) (*Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Transactions = append(m.Transactions, transaction)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Outcomes) > 0 {
		out := m.Outcomes[0]
		m.Outcomes = m.Outcomes[1:]
		return out, nil
	}
	return m.Default, nil
}
