package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/tx"
)

func ruleMatch(id string, category detect.Category, severity detect.Severity) detect.Match {
	return detect.Match{Rule: detect.Rule{
		ID:          id,
		Name:        id,
		Description: "desc " + id,
		Category:    category,
		Severity:    severity,
	}}
}

func TestScoreNoMatches(t *testing.T) {
	report := Score("s1", nil, nil)
	assert.False(t, report.VulnerabilityFound)
	assert.Equal(t, 0, report.Confidence)
	assert.Equal(t, detect.SeverityNone, report.Severity)
	assert.Empty(t, report.ExploitPath)
}

func TestScoreConfidenceLinearAndCapped(t *testing.T) {
	var matches []detect.Match
	for i := 0; i < 3; i++ {
		matches = append(matches, ruleMatch(string(rune('a'+i)), detect.CategoryLogic, detect.SeverityLow))
	}
	report := Score("s1", matches, nil)
	assert.Equal(t, 60, report.Confidence)

	for i := 3; i < 7; i++ {
		matches = append(matches, ruleMatch(string(rune('a'+i)), detect.CategoryLogic, detect.SeverityLow))
	}
	report = Score("s1", matches, nil)
	assert.Equal(t, 100, report.Confidence, "confidence caps at 100")
}

func TestScoreTakesWorstSeverity(t *testing.T) {
	report := Score("s1", []detect.Match{
		ruleMatch("m", detect.CategoryDOS, detect.SeverityMedium),
		ruleMatch("c", detect.CategoryAccessControl, detect.SeverityCritical),
		ruleMatch("h", detect.CategoryOverflow, detect.SeverityHigh),
	}, nil)
	assert.True(t, report.VulnerabilityFound)
	assert.Equal(t, detect.SeverityCritical, report.Severity)
}

func TestScoreExploitPathPreservesOrder(t *testing.T) {
	report := Score("s1", []detect.Match{
		ruleMatch("first", detect.CategoryLogic, detect.SeverityLow),
		ruleMatch("second", detect.CategoryOverflow, detect.SeverityHigh),
	}, nil)
	require.Len(t, report.ExploitPath, 2)
	assert.Equal(t, "first: desc first", report.ExploitPath[0])
	assert.Equal(t, "second: desc second", report.ExploitPath[1])
}

func TestScoreDeduplicatesRecommendations(t *testing.T) {
	report := Score("s1", []detect.Match{
		ruleMatch("a", detect.CategoryReentrancy, detect.SeverityHigh),
		ruleMatch("b", detect.CategoryReentrancy, detect.SeverityHigh),
		ruleMatch("c", detect.CategoryOracle, detect.SeverityMedium),
	}, nil)
	assert.Equal(t, []string{
		RecommendationFor(detect.CategoryReentrancy),
		RecommendationFor(detect.CategoryOracle),
	}, report.Recommendations)
}

func TestScoreAffectedAccounts(t *testing.T) {
	transaction := tx.NewTransaction("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	transaction.Add(tx.Instruction{
		ProgramID: "11111111111111111111111111111111",
		Accounts: []tx.AccountMeta{
			{Address: "vault111", Writable: true},
			{Address: "config11", Writable: false},
		},
	})
	report := Score("s1", nil, transaction)
	assert.Equal(t, []string{"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", "vault111"}, report.AffectedAccounts)
	assert.NotContains(t, report.AffectedAccounts, "config11")
}
