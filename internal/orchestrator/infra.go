// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/eventbus"
	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/suite"
	"github.com/dotandev/vigil/internal/tx"
)

// Infrastructure self-check identifiers. These run before the attack
// scenarios so a dead RPC endpoint or a mistyped catalog shows up as a
// clearly labeled environment problem instead of a wall of scenario
// errors.
const (
	infraCheckCount = 3

	checkRPCHealth       = "infra-rpc-health"
	checkTargetAccounts  = "infra-target-accounts"
	checkSnapshotCapture = "infra-snapshot-capture"
)

func (o *Orchestrator) runInfraChecks(ctx context.Context) []suite.TestResult {
	checks := []struct {
		id, name string
		run      func(context.Context) (bool, string)
	}{
		{checkRPCHealth, "RPC endpoint health", o.checkHealth},
		{checkTargetAccounts, "Target program accounts exist", o.checkTargetAccounts},
		{checkSnapshotCapture, "Snapshot capture round-trip", o.checkSnapshotCapture},
	}

	results := make([]suite.TestResult, 0, len(checks))
	for _, c := range checks {
		started := time.Now()
		if ctx.Err() != nil {
			r := suite.TestResult{
				ScenarioName: c.name,
				ScenarioID:   c.id,
				Category:     InfraCategory,
				Status:       suite.StatusSkipped,
				Details:      "run cancelled",
				Timestamp:    started.UTC(),
			}
			o.bus.Emit(eventbus.TopicInfraCheck, r)
			results = append(results, r)
			continue
		}
		healthy, detail := c.run(ctx)

		r := suite.TestResult{
			ScenarioName:  c.name,
			ScenarioID:    c.id,
			Category:      InfraCategory,
			Status:        suite.StatusPassed,
			Passed:        healthy,
			Details:       detail,
			Timestamp:     started.UTC(),
			Outcome:       suite.Outcome{InfraCheck: &suite.InfraCheckOutcome{Healthy: healthy, Detail: detail}},
		}
		if !healthy {
			r.Status = suite.StatusError
			r.Error = detail
		}
		r.ExecutionTimeMs = time.Since(started).Milliseconds()

		o.bus.Emit(eventbus.TopicInfraCheck, r)
		results = append(results, r)
	}
	return results
}

func (o *Orchestrator) checkHealth(ctx context.Context) (bool, string) {
	if err := o.client.Health(ctx); err != nil {
		return false, fmt.Sprintf("RPC endpoint unhealthy: %v", err)
	}
	return true, "RPC endpoint healthy"
}

// checkTargetAccounts verifies every cataloged program account resolves
// on chain. Program ids themselves are skipped: a program deployed via a
// loader shows up under the loader's ownership and GetAccountInfo on it
// is enough, but test catalogs routinely point at not-yet-deployed ids.
func (o *Orchestrator) checkTargetAccounts(ctx context.Context) (bool, string) {
	var missing []string
	checked := 0
	for _, target := range o.targets.List() {
		for name, addr := range target.Accounts {
			checked++
			if _, err := o.client.GetAccountInfo(ctx, string(addr)); err != nil {
				missing = append(missing, fmt.Sprintf("%s/%s", target.Name, name))
			}
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("%d of %d cataloged accounts missing: %v", len(missing), checked, missing)
	}
	return true, fmt.Sprintf("all %d cataloged accounts resolve", checked)
}

// checkSnapshotCapture exercises the snapshot path against the system
// program, which exists on every cluster.
func (o *Orchestrator) checkSnapshotCapture(ctx context.Context) (bool, string) {
	capturer := snapshot.NewCapturer(o.client)
	probe := tx.Address(chain.SystemProgramID)
	snap, err := capturer.Capture(ctx, []tx.Address{probe}, nil)
	if err != nil {
		return false, fmt.Sprintf("snapshot capture failed: %v", err)
	}
	if _, ok := snap.Account(probe); !ok {
		return false, "snapshot capture returned no account state"
	}
	return true, "snapshot capture operational"
}
