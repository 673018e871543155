// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"context"
	"sync"

	"github.com/dotandev/vigil/internal/errors"
)

// MockClient is an in-memory ReadClient/CommitClient used by tests and by
// offline infrastructure self-checks. Accounts, balances and canned
// simulation results are set directly on the struct.
type MockClient struct {
	mu sync.Mutex

	Accounts  map[string]*AccountInfo
	Tokens    map[string][]TokenBalance
	Blockhash string

	// SimulateFunc, when set, computes the result per call. Otherwise
	// SimulateResults are consumed in order, then SimulateDefault applies.
	SimulateFunc     func(txBase64 string) (*SimulateResult, error)
	SimulateResults  []*SimulateResult
	SimulateDefault  *SimulateResult
	HealthErr        error
	SentTransactions []string

	SimulateCalls int
}

// NewMockClient returns a mock with an empty healthy cluster.
func NewMockClient() *MockClient {
	return &MockClient{
		Accounts:  make(map[string]*AccountInfo),
		Tokens:    make(map[string][]TokenBalance),
		Blockhash: "11111111111111111111111111111111",
		SimulateDefault: &SimulateResult{
			Logs: []string{},
		},
	}
}

// SetAccount registers an account visible to snapshot captures.
func (m *MockClient) SetAccount(address string, info *AccountInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts[address] = info
}

func (m *MockClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.Accounts[address]
	if !ok {
		return nil, errors.WrapAccountNotFound(address)
	}
	cp := *info
	return &cp, nil
}

func (m *MockClient) GetMultipleAccounts(ctx context.Context, addresses []string) (map[string]*AccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*AccountInfo, len(addresses))
	for _, addr := range addresses {
		if info, ok := m.Accounts[addr]; ok {
			cp := *info
			out[addr] = &cp
		}
	}
	return out, nil
}

func (m *MockClient) GetProgramAccounts(ctx context.Context, programID string) ([]ProgramAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ProgramAccount
	for addr, info := range m.Accounts {
		if info.Owner == programID {
			cp := *info
			out = append(out, ProgramAccount{Address: addr, Info: &cp})
		}
	}
	return out, nil
}

func (m *MockClient) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TokenBalance(nil), m.Tokens[owner]...), nil
}

func (m *MockClient) GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &LatestBlockhash{Blockhash: m.Blockhash, LastValidBlockHeight: 1}, nil
}

func (m *MockClient) SimulateTransaction(ctx context.Context, txBase64 string) (*SimulateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SimulateCalls++

	if m.SimulateFunc != nil {
		return m.SimulateFunc(txBase64)
	}
	if len(m.SimulateResults) > 0 {
		res := m.SimulateResults[0]
		m.SimulateResults = m.SimulateResults[1:]
		return res, nil
	}
	return m.SimulateDefault, nil
}

func (m *MockClient) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentTransactions = append(m.SentTransactions, txBase64)
	return "MockSignature1111111111111111111111111111111", nil
}

func (m *MockClient) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.HealthErr
}
