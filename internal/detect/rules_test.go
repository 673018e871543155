package detect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/tx"
)

func snapPair(pre, post map[tx.Address]snapshot.AccountState) (*snapshot.Snapshot, *snapshot.Snapshot) {
	now := time.Now().UTC()
	return &snapshot.Snapshot{Accounts: pre, CapturedAt: now},
		&snapshot.Snapshot{Accounts: post, CapturedAt: now.Add(2 * time.Second)}
}

func matchedIDs(matches []Match) []string {
	var ids []string
	for _, m := range matches {
		ids = append(ids, m.Rule.ID)
	}
	return ids
}

func TestBalanceChangeRule(t *testing.T) {
	tests := []struct {
		name      string
		pre, post uint64
		want      bool
	}{
		{"within threshold", 1000, 1099, false},
		{"exactly threshold", 1000, 1100, false},
		{"drained above threshold", 1000, 880, true},
		{"inflated above threshold", 1000, 1200, true},
		{"zero pre nonzero post", 0, 1, true},
		{"zero pre zero post", 0, 0, false},
		{"huge inflation wraps delta*10", 0, 1 << 63, true},
		{"max representable drain", math.MaxUint64, 0, true},
		{"huge pre within threshold", math.MaxUint64, math.MaxUint64 - math.MaxUint64/20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre, post := snapPair(
				map[tx.Address]snapshot.AccountState{"v": {Address: "v", Exists: true, Lamports: tt.pre}},
				map[tx.Address]snapshot.AccountState{"v": {Address: "v", Exists: true, Lamports: tt.post}},
			)
			got := evalBalanceChange(&Context{Pre: pre, Post: post})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBalanceChangeRuleTokenBalances(t *testing.T) {
	pre, post := snapPair(
		map[tx.Address]snapshot.AccountState{"t": {
			Address: "t", Exists: true, Lamports: 100,
			TokenBalances: map[string]uint64{"mintA": 500},
		}},
		map[tx.Address]snapshot.AccountState{"t": {
			Address: "t", Exists: true, Lamports: 100,
			TokenBalances: map[string]uint64{"mintA": 0},
		}},
	)
	assert.True(t, evalBalanceChange(&Context{Pre: pre, Post: post}))
}

func TestPrivilegeEscalationRule(t *testing.T) {
	pre, post := snapPair(
		map[tx.Address]snapshot.AccountState{"cfg": {
			Address: "cfg", Exists: true,
			DecodedFields: map[string]string{"authority": "alice"},
		}},
		map[tx.Address]snapshot.AccountState{"cfg": {
			Address: "cfg", Exists: true,
			DecodedFields: map[string]string{"authority": "mallory"},
		}},
	)
	assert.True(t, evalPrivilegeEscalation(&Context{Pre: pre, Post: post}))

	// unchanged field does not fire
	post.Accounts["cfg"] = snapshot.AccountState{
		Address: "cfg", Exists: true,
		DecodedFields: map[string]string{"authority": "alice"},
	}
	assert.False(t, evalPrivilegeEscalation(&Context{Pre: pre, Post: post}))
}

func TestReentrancyRule(t *testing.T) {
	assert.True(t, evalReentrancy(&Context{Logs: []string{
		"Program X invoke [1]",
		"Program log: Instruction: Claim",
		"Program log: Instruction: Claim",
	}}))
	assert.False(t, evalReentrancy(&Context{Logs: []string{
		"Program log: Instruction: Claim",
		"Program log: Instruction: Withdraw",
	}}))
}

func TestOverflowRule(t *testing.T) {
	assert.True(t, evalOverflow(&Context{Logs: []string{
		"Program log: panicked at 'attempt to subtract with overflow'",
	}}))
	assert.True(t, evalOverflow(&Context{Logs: []string{"Program log: Underflow detected"}}))
	assert.False(t, evalOverflow(&Context{Logs: []string{"Program log: ok"}}))
}

func TestDOSRule(t *testing.T) {
	assert.True(t, evalDOS(&Context{UnitsConsumed: 1_000_001}))
	assert.False(t, evalDOS(&Context{UnitsConsumed: 1_000_000}))
	assert.True(t, evalDOS(&Context{ExecutionTimeMs: 30_001}))

	transaction := tx.NewTransaction("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	for i := 0; i < 11; i++ {
		transaction.Add(tx.Instruction{ProgramID: "11111111111111111111111111111111"})
	}
	assert.True(t, evalDOS(&Context{Transaction: transaction}))
}

func TestDataManipulationRule(t *testing.T) {
	pre, post := snapPair(
		map[tx.Address]snapshot.AccountState{"mint": {
			Address: "mint", Exists: true,
			DecodedFields: map[string]string{"total_supply": "1000", "decimals": "9"},
		}},
		map[tx.Address]snapshot.AccountState{"mint": {
			Address: "mint", Exists: true,
			DecodedFields: map[string]string{"total_supply": "2000", "decimals": "9"},
		}},
	)
	assert.True(t, evalDataManipulation(&Context{Pre: pre, Post: post}))
}

func TestTimingAnomalyRule(t *testing.T) {
	now := time.Now().UTC()
	pre := &snapshot.Snapshot{CapturedAt: now}
	ok := &snapshot.Snapshot{CapturedAt: now.Add(5 * time.Second)}
	late := &snapshot.Snapshot{CapturedAt: now.Add(2 * time.Hour)}
	backwards := &snapshot.Snapshot{CapturedAt: now.Add(-time.Second)}

	assert.False(t, evalTimingAnomaly(&Context{Pre: pre, Post: ok}))
	assert.True(t, evalTimingAnomaly(&Context{Pre: pre, Post: late}))
	assert.True(t, evalTimingAnomaly(&Context{Pre: pre, Post: backwards}))
}

func TestCrossProgramRule(t *testing.T) {
	transaction := tx.NewTransaction("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	for _, p := range []tx.Address{"p1", "p2", "p3", "p4"} {
		transaction.Add(tx.Instruction{ProgramID: p})
	}
	logs := []string{
		"Program p1 invoke [1]",
		"Program p2 invoke [2]",
		"Program p3 invoke [2]",
		"Program p4 invoke [3]",
		"Program p2 invoke [2]",
		"Program p3 invoke [2]",
		"Program p4 invoke [2]",
	}
	assert.True(t, evalCrossProgram(&Context{Transaction: transaction, Logs: logs}))

	// too few distinct programs
	small := tx.NewTransaction("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	small.Add(tx.Instruction{ProgramID: "p1"})
	assert.False(t, evalCrossProgram(&Context{Transaction: small, Logs: logs}))
}

func TestRegistryEvaluateReturnsAllMatchesInOrder(t *testing.T) {
	reg := NewDefaultRegistry()
	require.Equal(t, 8, reg.Len())

	pre, post := snapPair(
		map[tx.Address]snapshot.AccountState{"v": {
			Address: "v", Exists: true, Lamports: 1000,
			DecodedFields: map[string]string{"owner": "alice"},
		}},
		map[tx.Address]snapshot.AccountState{"v": {
			Address: "v", Exists: true, Lamports: 0,
			DecodedFields: map[string]string{"owner": "mallory"},
		}},
	)
	matches := reg.Evaluate(&Context{
		Pre:  pre,
		Post: post,
		Logs: []string{
			"Program log: Instruction: Drain",
			"Program log: Instruction: Drain",
		},
	})
	assert.Equal(t, []string{"unexpected-balance-change", "privilege-escalation", "reentrancy-pattern"}, matchedIDs(matches))
}

func TestRegistryRejectsBadRules(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(Rule{ID: "", Name: "x"}))
	assert.Error(t, reg.Register(Rule{ID: "a", Name: "a", Category: "nope", Severity: SeverityLow, Evaluate: func(*Context) bool { return false }}))
	assert.Error(t, reg.Register(Rule{ID: "a", Name: "a", Category: CategoryLogic, Severity: "silly", Evaluate: func(*Context) bool { return false }}))

	ok := Rule{ID: "a", Name: "a", Category: CategoryLogic, Severity: SeverityLow, Evaluate: func(*Context) bool { return false }}
	require.NoError(t, reg.Register(ok))
	assert.Error(t, reg.Register(ok), "duplicate id")
}

func TestRegistryOpenForExtension(t *testing.T) {
	reg := NewDefaultRegistry()
	custom := Rule{
		ID:       "custom-log-marker",
		Name:     "Custom log marker",
		Category: CategoryLogic,
		Severity: SeverityLow,
		Evaluate: func(ctx *Context) bool {
			for _, l := range ctx.Logs {
				if l == "Program log: backdoor" {
					return true
				}
			}
			return false
		},
	}
	require.NoError(t, reg.Register(custom))

	matches := reg.Evaluate(&Context{Logs: []string{"Program log: backdoor"}})
	assert.Equal(t, []string{"custom-log-marker"}, matchedIDs(matches))

	descs := reg.Descriptors()
	assert.Len(t, descs, 9)
	assert.Equal(t, "custom-log-marker", descs[8].ID)
}
