package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/detect"
	apperrors "github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/tx"
)

func testContext(t *testing.T) (*BuildContext, *catalog.Registry) {
	t.Helper()
	reg, err := catalog.Load(catalog.SampleCatalog())
	require.NoError(t, err)
	ctx, err := NewBuildContext(reg)
	require.NoError(t, err)
	return ctx, reg
}

func TestDefaultRegistryCoversAllCategoriesButLogic(t *testing.T) {
	reg := NewDefaultRegistry()
	assert.Equal(t, 9, reg.Len())

	covered := make(map[detect.Category]bool)
	for _, s := range reg.List() {
		covered[s.Category] = true
	}
	for _, c := range detect.Categories() {
		if c == detect.CategoryLogic {
			continue // logic findings come from detection rules, not a dedicated probe
		}
		assert.True(t, covered[c], "no scenario for category %s", c)
	}
}

func TestApplicabilityFollowsCapabilities(t *testing.T) {
	ctx, targets := testContext(t)
	_ = ctx
	scenarios := NewDefaultRegistry()

	swap, ok := targets.Get("swap")
	require.True(t, ok)
	estate, ok := targets.Get("estate")
	require.True(t, ok)

	swapIDs := descriptorIDs(scenarios.ForTarget(swap))
	assert.Contains(t, swapIDs, "zero-amount-swap")
	assert.Contains(t, swapIDs, "oracle-injection")
	assert.NotContains(t, swapIDs, "reentrant-claim")

	estateIDs := descriptorIDs(scenarios.ForTarget(estate))
	assert.Contains(t, estateIDs, "reentrant-claim")
	assert.Contains(t, estateIDs, "unauthorized-admin-call")
	assert.NotContains(t, estateIDs, "zero-amount-swap")
}

func descriptorIDs(scenarios []*Scenario) []string {
	var ids []string
	for _, s := range scenarios {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestUnauthorizedAdminUsesThrowawaySigner(t *testing.T) {
	ctx, targets := testContext(t)
	factory, _ := targets.Get("app_factory")

	s, ok := NewDefaultRegistry().Get("unauthorized-admin-call")
	require.True(t, ok)

	transaction, err := s.Build(factory, ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx.Attacker.Address(), transaction.FeePayer)
	require.Len(t, transaction.Instructions, 1)

	var signsAsAttacker bool
	for _, m := range transaction.Instructions[0].Accounts {
		if m.Address == ctx.Attacker.Address() && m.Signer {
			signsAsAttacker = true
		}
	}
	assert.True(t, signsAsAttacker)
}

func TestZeroAmountSwapEncodesZero(t *testing.T) {
	ctx, targets := testContext(t)
	swap, _ := targets.Get("swap")

	s, _ := NewDefaultRegistry().Get("zero-amount-swap")
	transaction, err := s.Build(swap, ctx)
	require.NoError(t, err)
	require.Len(t, transaction.Instructions, 1)
	data := transaction.Instructions[0].Data
	require.GreaterOrEqual(t, len(data), 16)
	assert.Equal(t, make([]byte, 8), data[8:16], "amount_in must be zero")
}

func TestDoubleSpendChainsTwoTransfers(t *testing.T) {
	ctx, targets := testContext(t)
	factory, _ := targets.Get("app_factory")

	s, _ := NewDefaultRegistry().Get("double-spend-transfer")
	transaction, err := s.Build(factory, ctx)
	require.NoError(t, err)
	assert.Len(t, transaction.Instructions, 2)
	assert.Equal(t, transaction.Instructions[0].Data, transaction.Instructions[1].Data)
}

func TestInstructionFloodExceedsBudget(t *testing.T) {
	ctx, targets := testContext(t)
	estate, _ := targets.Get("estate")

	s, _ := NewDefaultRegistry().Get("instruction-flood")
	transaction, err := s.Build(estate, ctx)
	require.NoError(t, err)
	assert.Len(t, transaction.Instructions, dosInstructionCount)
}

func TestCrossProgramChainSpansCatalog(t *testing.T) {
	ctx, targets := testContext(t)
	factory, _ := targets.Get("app_factory")

	s, _ := NewDefaultRegistry().Get("cross-program-chain")
	assert.True(t, s.SpansCatalog, "whole-catalog scenarios run once per suite")
	transaction, err := s.Build(factory, ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(transaction.Instructions), 3)
}

func TestBuildFailsOnMissingCapability(t *testing.T) {
	ctx, targets := testContext(t)
	estate, _ := targets.Get("estate")

	s, _ := NewDefaultRegistry().Get("zero-amount-swap")
	_, err := s.Build(estate, ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrScenarioBuild)
}

func TestRegistryRejectsDuplicatesAndBadEntries(t *testing.T) {
	reg := NewRegistry()
	ok := &Scenario{
		ID:       "x",
		Name:     "x",
		Category: detect.CategoryLogic,
		Severity: detect.SeverityLow,
		Build: func(*catalog.TargetProgram, *BuildContext) (*tx.Transaction, error) {
			return nil, nil
		},
	}
	require.NoError(t, reg.Register(ok))
	assert.Error(t, reg.Register(ok))
	assert.Error(t, reg.Register(&Scenario{ID: "y", Name: "y", Category: "bad", Severity: detect.SeverityLow, Build: ok.Build}))
	assert.Error(t, reg.Register(&Scenario{ID: "z", Name: "z", Category: detect.CategoryLogic, Severity: detect.SeverityLow}))
}
