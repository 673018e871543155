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

// Package orchestrator drives an audit run: strictly sequential scenario
// execution with snapshot capture around every simulation, rule
// evaluation, scoring, streaming of per-scenario results, and final
// aggregation. One failing scenario never aborts the run.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/config"
	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/eventbus"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/scenario"
	"github.com/dotandev/vigil/internal/score"
	"github.com/dotandev/vigil/internal/simulator"
	"github.com/dotandev/vigil/internal/snapshot"
	"github.com/dotandev/vigil/internal/store"
	"github.com/dotandev/vigil/internal/suite"
	"github.com/dotandev/vigil/internal/telemetry"
	"github.com/dotandev/vigil/internal/tx"
	"github.com/dotandev/vigil/internal/webhook"
)

// InfraCategory labels infrastructure self-check results in reports.
const InfraCategory = detect.Category("infrastructure")

// Selection narrows a run to specific categories, programs or scenarios.
// Empty fields select everything.
type Selection struct {
	Categories      []string
	Programs        []string
	ScenarioIDs     []string
	SkipInfraChecks bool
}

func (s Selection) wantsCategory(c detect.Category) bool {
	return contains(s.Categories, string(c))
}

func (s Selection) wantsProgram(name string) bool {
	return contains(s.Programs, name)
}

func (s Selection) wantsScenario(id string) bool {
	return contains(s.ScenarioIDs, id)
}

func contains(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Orchestrator owns the shared pieces of a run. It is not itself safe for
// concurrent runs; callers run one suite at a time.
type Orchestrator struct {
	cfg       *config.Config
	client    chain.ReadClient
	sim       simulator.Simulator
	targets   *catalog.Registry
	scenarios *scenario.Registry
	rules     *detect.Registry
	bus       *eventbus.EventBus
	store     *store.Store
	notifier  *webhook.AuditNotifier
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSimulator overrides the default dry-run simulator. This is the only
// way to reach the committing simulator.
func WithSimulator(sim simulator.Simulator) Option {
	return func(o *Orchestrator) { o.sim = sim }
}

// WithScenarios overrides the built-in attack library.
func WithScenarios(r *scenario.Registry) Option {
	return func(o *Orchestrator) { o.scenarios = r }
}

// WithRules overrides the built-in detection rules.
func WithRules(r *detect.Registry) Option {
	return func(o *Orchestrator) { o.rules = r }
}

// WithStore enables audit persistence.
func WithStore(s *store.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithNotifier enables webhook notifications.
func WithNotifier(n *webhook.AuditNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithBus replaces the internal event bus, so callers can subscribe
// before the run starts.
func WithBus(b *eventbus.EventBus) Option {
	return func(o *Orchestrator) { o.bus = b }
}

// New assembles an orchestrator over the given target catalog.
func New(cfg *config.Config, client chain.ReadClient, targets *catalog.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		client:    client,
		sim:       simulator.NewDryRun(client),
		targets:   targets,
		scenarios: scenario.NewDefaultRegistry(),
		rules:     detect.NewDefaultRegistry(),
		bus:       eventbus.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bus returns the event bus results are emitted on.
func (o *Orchestrator) Bus() *eventbus.EventBus {
	return o.bus
}

// RunSuite executes the selected scenarios sequentially and returns the
// aggregated report. Per-result streaming happens on the bus and, when
// sink is non-nil, on the sink channel (closed before returning).
func (o *Orchestrator) RunSuite(ctx context.Context, sel Selection, sink chan<- suite.TestResult) (*suite.TestSuiteReport, error) {
	ctx, span := telemetry.GetTracer().Start(ctx, "run_suite")
	defer span.End()

	if sink != nil {
		defer close(sink)
	}

	runID := uuid.NewString()
	start := time.Now()
	o.bus.Emit(eventbus.TopicRunStarted, runID)
	logger.Logger.Info("audit run started",
		"run_id", runID,
		"network", string(o.cfg.Network),
		"targets", o.targets.Len(),
		"scenarios", o.scenarios.Len())

	var results []suite.TestResult
	var pairs []snapshotPair

	record := func(r suite.TestResult) {
		results = append(results, r)
		o.bus.Emit(eventbus.TopicScenarioResult, r)
		if o.notifier != nil {
			o.notifier.NotifyResult(runID, string(o.cfg.Network), r)
		}
		if sink != nil {
			sink <- r
		}
	}

	if !sel.SkipInfraChecks {
		for _, r := range o.runInfraChecks(ctx) {
			record(r)
		}
	}

	plan := o.plan(sel)
	for i, step := range plan {
		// Cancellation is honored between scenarios, never inside one.
		if ctx.Err() != nil {
			record(skippedResult(step, "run cancelled"))
			continue
		}
		if i > 0 && o.cfg.InterScenarioDelay > 0 {
			time.Sleep(o.cfg.InterScenarioDelay)
		}

		o.bus.Emit(eventbus.TopicScenarioStarted, step.scenario.ID)
		result, pre, post := o.runScenario(ctx, step)
		record(result)

		if o.cfg.PersistSnapshots && pre != nil && post != nil {
			pairs = append(pairs, snapshotPair{
				scenarioID: step.scenario.ID,
				target:     step.target.Name,
				pre:        pre,
				post:       post,
			})
		}
	}

	report := suite.Aggregate(runID, string(o.cfg.Network), results, time.Since(start))
	o.bus.Emit(eventbus.TopicRunFinished, report)

	if o.store != nil && o.cfg.PersistResults {
		if err := o.store.SaveRun(ctx, report); err != nil {
			logger.Logger.Error("failed to persist run", "run_id", runID, "error", err)
		} else {
			for _, p := range pairs {
				if err := o.store.SaveSnapshotPair(ctx, runID, p.scenarioID, p.target, p.pre, p.post); err != nil {
					logger.Logger.Error("failed to persist snapshots", "scenario", p.scenarioID, "error", err)
				}
			}
		}
	}

	logger.Logger.Info("audit run finished",
		"run_id", runID,
		"score", report.SecurityScore,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"errors", report.Summary.Errors)
	return report, nil
}

type snapshotPair struct {
	scenarioID string
	target     string
	pre        *snapshot.Snapshot
	post       *snapshot.Snapshot
}

// Planned returns the number of results a run with this selection will
// produce, so callers can size progress reporting.
func (o *Orchestrator) Planned(sel Selection) int {
	n := len(o.plan(sel))
	if !sel.SkipInfraChecks {
		n += infraCheckCount
	}
	return n
}

// planStep is one (scenario, target) pair of the run plan.
type planStep struct {
	scenario *scenario.Scenario
	target   *catalog.TargetProgram
}

// plan expands the selection into the ordered (scenario, target) pairs:
// targets in catalog order, applicable scenarios in registration order.
// Catalog-spanning scenarios build the same whole-catalog transaction for
// every target, so they are planned once, against their first eligible
// target.
func (o *Orchestrator) plan(sel Selection) []planStep {
	var steps []planStep
	planned := make(map[string]bool)
	for _, target := range o.targets.List() {
		if !sel.wantsProgram(target.Name) {
			continue
		}
		for _, sc := range o.scenarios.ForTarget(target) {
			if !sel.wantsCategory(sc.Category) || !sel.wantsScenario(sc.ID) {
				continue
			}
			if sc.SpansCatalog {
				if planned[sc.ID] {
					continue
				}
				planned[sc.ID] = true
			}
			steps = append(steps, planStep{scenario: sc, target: target})
		}
	}
	return steps
}

// runScenario executes one step through its full lifecycle. Any panic or
// infrastructure failure becomes an error result; the caller continues
// with the next scenario either way.
func (o *Orchestrator) runScenario(ctx context.Context, step planStep) (result suite.TestResult, pre, post *snapshot.Snapshot) {
	sc, target := step.scenario, step.target
	started := time.Now()

	result = suite.TestResult{
		ScenarioName:  sc.Name,
		ScenarioID:    sc.ID,
		Category:      sc.Category,
		TargetProgram: target.Name,
		Status:        suite.StatusRunning,
		Timestamp:     started.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("scenario panicked", "scenario", sc.ID, "panic", r)
			result.Status = suite.StatusError
			result.Passed = false
			result.Error = fmt.Sprintf("scenario panicked: %v", r)
			result.Details = "internal failure, not a security verdict"
		}
		result.ExecutionTimeMs = time.Since(started).Milliseconds()
	}()

	runCtx := ctx
	if o.cfg.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.ScenarioTimeout)
		defer cancel()
	}

	buildCtx, err := scenario.NewBuildContext(o.targets)
	if err != nil {
		return o.errorResult(result, sc.ID, err), nil, nil
	}

	transaction, err := sc.Build(target, buildCtx)
	if err != nil {
		return o.errorResult(result, sc.ID, err), nil, nil
	}

	watched := watchedAccounts(transaction, target)

	capturer := snapshot.NewCapturer(o.client)
	pre, err = capturer.Capture(runCtx, watched, target)
	if err != nil {
		return o.errorResult(result, sc.ID, err), nil, nil
	}
	o.bus.Emit(eventbus.TopicSnapshotsTaken, sc.ID)

	outcome, err := o.sim.Simulate(runCtx, transaction, buildCtx.Signers()...)
	if err != nil {
		return o.errorResult(result, sc.ID, err), nil, nil
	}

	post, err = capturer.Capture(runCtx, watched, target)
	if err != nil {
		return o.errorResult(result, sc.ID, err), nil, nil
	}

	detectCtx := &detect.Context{
		Pre:             pre,
		Post:            post,
		Transaction:     transaction,
		Logs:            outcome.Logs,
		ExecutionTimeMs: outcome.Duration.Milliseconds(),
		UnitsConsumed:   outcome.UnitsConsumed,
		SimulationErr:   outcome.Err,
	}
	matches := o.rules.Evaluate(detectCtx)
	report := score.Score(sc.ID, matches, transaction)

	result.Outcome = suite.Outcome{Attack: &suite.AttackOutcome{
		Report:        report,
		SimulationErr: outcome.Err,
		Logs:          outcome.Logs,
		UnitsConsumed: outcome.UnitsConsumed,
	}}

	// The scenario passes when the attack was prevented: the program
	// rejected the transaction, or nothing suspicious happened.
	prevented := !outcome.Succeeded || !report.VulnerabilityFound
	if prevented {
		result.Status = suite.StatusPassed
		result.Passed = true
		if outcome.Succeeded {
			result.Details = "transaction accepted but no detection rule matched"
		} else {
			result.Details = fmt.Sprintf("attack blocked: %s", outcome.Err)
		}
	} else {
		result.Status = suite.StatusFailed
		result.Passed = false
		result.Details = report.Details
	}
	return result, pre, post
}

// errorResult finalizes an infrastructure failure. Timeouts are wrapped so
// the error family is recognizable downstream.
func (o *Orchestrator) errorResult(result suite.TestResult, scenarioID string, err error) suite.TestResult {
	if ctxErr := contextError(err); ctxErr != nil {
		err = errors.WrapScenarioTimeout(scenarioID, ctxErr)
	}
	if !errors.IsInfrastructure(err) {
		logger.Logger.Warn("unclassified scenario error", "scenario", scenarioID, "error", err)
	}
	result.Status = suite.StatusError
	result.Passed = false
	result.Error = err.Error()
	result.Details = "infrastructure error, not a security verdict"
	return result
}

func contextError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if stderrors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return nil
}

func skippedResult(step planStep, reason string) suite.TestResult {
	return suite.TestResult{
		ScenarioName:  step.scenario.Name,
		ScenarioID:    step.scenario.ID,
		Category:      step.scenario.Category,
		TargetProgram: step.target.Name,
		Status:        suite.StatusSkipped,
		Details:       reason,
		Timestamp:     time.Now().UTC(),
	}
}

// watchedAccounts is the union of everything the transaction touches and
// the target's cataloged protocol accounts, deduplicated.
func watchedAccounts(transaction *tx.Transaction, target *catalog.TargetProgram) []tx.Address {
	seen := make(map[tx.Address]bool)
	var out []tx.Address
	add := func(a tx.Address) {
		if a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range transaction.ReferencedAccounts() {
		add(a)
	}
	for _, a := range target.Accounts {
		add(a)
	}
	return out
}
