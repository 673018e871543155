package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/score"
	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/suite"
	"github.com/dotandev/vigil/internal/tx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(runID string) *suite.TestSuiteReport {
	results := []suite.TestResult{
		{
			ScenarioName:  "Unauthorized admin call",
			ScenarioID:    "unauthorized-admin-call",
			Category:      detect.CategoryAccessControl,
			TargetProgram: "app_factory",
			Status:        suite.StatusFailed,
			Details:       "exploit appears to work",
			Timestamp:     time.Now().UTC(),
			Outcome: suite.Outcome{Attack: &suite.AttackOutcome{
				Report: &score.VulnerabilityReport{
					ScenarioID:         "unauthorized-admin-call",
					VulnerabilityFound: true,
					Severity:           detect.SeverityCritical,
					Confidence:         40,
				},
			}},
		},
		{
			ScenarioName:  "Zero amount swap",
			ScenarioID:    "zero-amount-swap",
			Category:      detect.CategoryValidation,
			TargetProgram: "swap",
			Status:        suite.StatusPassed,
			Passed:        true,
			Details:       "attack blocked",
			Timestamp:     time.Now().UTC(),
		},
	}
	return suite.Aggregate(runID, "devnet", results, 3*time.Second)
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	report := sampleReport("run-abc")
	require.NoError(t, s.SaveRun(ctx, report))

	loaded, err := s.GetRun(ctx, "run-abc")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, report.SecurityScore, loaded.SecurityScore)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, suite.StatusFailed, loaded.Results[0].Status)
	assert.Equal(t, detect.SeverityCritical, loaded.Results[0].Severity())
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
}

func TestSaveRunRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveRun(context.Background(), &suite.TestSuiteReport{})
	require.Error(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := sampleReport("run-old")
	older.Summary.TestDate = time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveRun(ctx, older))
	require.NoError(t, s.SaveRun(ctx, sampleReport("run-new")))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestSnapshotPairRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, sampleReport("run-snap")))

	pre := &snapshot.Snapshot{
		Accounts: map[tx.Address]snapshot.AccountState{
			"vault": {Address: "vault", Exists: true, Lamports: 1000},
		},
		CapturedAt: time.Now().UTC(),
	}
	post := &snapshot.Snapshot{
		Accounts: map[tx.Address]snapshot.AccountState{
			"vault": {Address: "vault", Exists: true, Lamports: 0},
		},
		CapturedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveSnapshotPair(ctx, "run-snap", "overdraw-transfer", "app_factory", pre, post))

	pairs, err := s.GetSnapshots(ctx, "run-snap")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "overdraw-transfer", pairs[0].ScenarioID)
	assert.Equal(t, uint64(1000), pairs[0].Pre.Accounts["vault"].Lamports)
	assert.Equal(t, uint64(0), pairs[0].Post.Accounts["vault"].Lamports)
}
