package suite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/score"
)

func passedResult(name string, category detect.Category, program string) TestResult {
	return TestResult{
		ScenarioName:  name,
		ScenarioID:    name,
		Category:      category,
		TargetProgram: program,
		Status:        StatusPassed,
		Passed:        true,
		Details:       "attack blocked",
		Timestamp:     time.Now().UTC(),
		Outcome: Outcome{Attack: &AttackOutcome{
			Report: &score.VulnerabilityReport{ScenarioID: name},
		}},
	}
}

func failedResult(name string, category detect.Category, program string, recs ...string) TestResult {
	return TestResult{
		ScenarioName:  name,
		ScenarioID:    name,
		Category:      category,
		TargetProgram: program,
		Status:        StatusFailed,
		Details:       "exploit appears to work",
		Timestamp:     time.Now().UTC(),
		Outcome: Outcome{Attack: &AttackOutcome{
			Report: &score.VulnerabilityReport{
				ScenarioID:         name,
				VulnerabilityFound: true,
				Severity:           detect.SeverityCritical,
				Recommendations:    recs,
			},
		}},
	}
}

func TestAggregateSummaryAndScore(t *testing.T) {
	results := []TestResult{
		passedResult("a", detect.CategoryAccessControl, "swap"),
		passedResult("b", detect.CategoryValidation, "swap"),
		failedResult("c", detect.CategoryReentrancy, "estate"),
		{ScenarioName: "d", Category: detect.CategoryDOS, Status: StatusError, Error: "rpc timeout"},
	}

	report := Aggregate("run-1", "devnet", results, 4*time.Second)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, int64(4000), report.Summary.ExecutionTimeMs)
	assert.Equal(t, 50, report.SecurityScore)

	// sums must match
	s := report.Summary
	assert.Equal(t, s.Total, s.Passed+s.Failed+s.Skipped+s.Errors)
}

func TestAggregateEmptyRunScoresZero(t *testing.T) {
	report := Aggregate("run-2", "devnet", nil, 0)
	assert.Equal(t, 0, report.SecurityScore)
	assert.Equal(t, 0, report.Summary.Total)
}

func TestAggregateBreakdowns(t *testing.T) {
	results := []TestResult{
		passedResult("a", detect.CategoryAccessControl, "swap"),
		failedResult("b", detect.CategoryAccessControl, "swap"),
		passedResult("c", detect.CategoryValidation, "estate"),
	}
	report := Aggregate("run-3", "devnet", results, time.Second)

	ac := report.CategoryBreakdown[string(detect.CategoryAccessControl)]
	require.NotNil(t, ac)
	assert.Equal(t, Breakdown{Total: 2, Passed: 1, Failed: 1}, *ac)

	swap := report.ProgramBreakdown["swap"]
	require.NotNil(t, swap)
	assert.Equal(t, Breakdown{Total: 2, Passed: 1, Failed: 1}, *swap)
}

func TestAggregateDeduplicatesRecommendations(t *testing.T) {
	rec := "implement reentrancy guards and checks-effects-interactions ordering"
	results := []TestResult{
		failedResult("a", detect.CategoryReentrancy, "estate", rec),
		failedResult("b", detect.CategoryReentrancy, "estate", rec, "other advice"),
		passedResult("c", detect.CategoryValidation, "swap"),
	}
	report := Aggregate("run-4", "devnet", results, time.Second)
	assert.Equal(t, []string{rec, "other advice"}, report.Recommendations)
}

func TestSecurityScoreRounding(t *testing.T) {
	assert.Equal(t, 67, securityScore(2, 3))
	assert.Equal(t, 33, securityScore(1, 3))
	assert.Equal(t, 100, securityScore(5, 5))
	assert.Equal(t, 0, securityScore(0, 7))
}

func TestExportJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewExporter(dir)
	require.NoError(t, err)

	report := Aggregate("run-5", "devnet", []TestResult{
		failedResult("reentrant-claim", detect.CategoryReentrancy, "estate"),
	}, time.Second)

	path, err := exporter.Export(report, "json")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded TestSuiteReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.SecurityScore, decoded.SecurityScore)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, StatusFailed, decoded.Results[0].Status)
	assert.True(t, decoded.Results[0].Outcome.Attack.Report.VulnerabilityFound)
}

func TestExportHTML(t *testing.T) {
	dir := t.TempDir()
	exporter, err := NewExporter(dir)
	require.NoError(t, err)

	report := Aggregate("run-6", "devnet", []TestResult{
		passedResult("zero-amount-swap", detect.CategoryValidation, "swap"),
	}, time.Second)

	path, err := exporter.Export(report, "html")
	require.NoError(t, err)
	assert.Equal(t, ".html", filepath.Ext(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, strings.Contains(content, "zero-amount-swap"))
	assert.True(t, strings.Contains(content, "Security Audit Report"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	require.NoError(t, err)
	_, err = exporter.Export(&TestSuiteReport{RunID: "x"}, "xml")
	require.Error(t, err)
}
