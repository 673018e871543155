// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

// Package scenario is the attack library: each scenario is a pure builder
// producing a candidate exploit transaction for a target program. Builders
// never assume the attack works; they only have to construct a plausible
// attempt for the target's instruction surface.
package scenario

import (
	"fmt"
	"sync"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/signer"
	"github.com/dotandev/vigil/internal/tx"
)

// BuildContext carries the ambient inputs a builder may use: throwaway
// identities (never protocol authorities) and the full target registry for
// scenarios that span programs.
type BuildContext struct {
	Attacker   *signer.Keypair
	Accomplice *signer.Keypair
	Registry   *catalog.Registry
}

// NewBuildContext provisions the attacker identity (from the environment
// when configured, so simulations can run with a funded account) and a
// fresh accomplice.
func NewBuildContext(registry *catalog.Registry) (*BuildContext, error) {
	attacker, err := signer.NewFromEnv()
	if err != nil {
		return nil, err
	}
	accomplice, err := signer.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return &BuildContext{Attacker: attacker, Accomplice: accomplice, Registry: registry}, nil
}

// Signers returns the identities that sign built transactions.
func (c *BuildContext) Signers() []tx.MessageSigner {
	return []tx.MessageSigner{c.Attacker, c.Accomplice}
}

// Scenario is one registered attack. AppliesTo gates the scenario on a
// target's capability surface; a nil AppliesTo applies to every target.
// SpansCatalog marks scenarios whose transaction covers the whole catalog
// regardless of which target they are paired with; these run once per
// suite, not once per target.
type Scenario struct {
	ID           string
	Name         string
	Description  string
	Category     detect.Category
	Severity     detect.Severity
	SpansCatalog bool
	AppliesTo    func(*catalog.TargetProgram) bool
	Build        func(*catalog.TargetProgram, *BuildContext) (*tx.Transaction, error)
}

// Applies reports whether the scenario can run against the target.
func (s *Scenario) Applies(target *catalog.TargetProgram) bool {
	if s.AppliesTo == nil {
		return true
	}
	return s.AppliesTo(target)
}

// Descriptor is the serializable shape of a scenario for catalog export.
type Descriptor struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    detect.Category `json:"category"`
	Severity    detect.Severity `json:"severity"`
}

// Registry holds scenarios in registration order.
type Registry struct {
	mu        sync.RWMutex
	scenarios []*Scenario
	byID      map[string]*Scenario
}

// NewRegistry returns an empty scenario registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Scenario)}
}

// Register validates and adds a scenario.
func (r *Registry) Register(s *Scenario) error {
	if s.ID == "" || s.Name == "" {
		return errors.WrapRegistration("scenario id and name must not be empty")
	}
	if s.Build == nil {
		return errors.WrapRegistration(fmt.Sprintf("scenario %q has no builder", s.ID))
	}
	if !detect.ValidCategory(string(s.Category)) {
		return errors.WrapRegistration(fmt.Sprintf("scenario %q: unknown category %q", s.ID, s.Category))
	}
	if s.Severity.Rank() == 0 {
		return errors.WrapRegistration(fmt.Sprintf("scenario %q: unknown severity %q", s.ID, s.Severity))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[s.ID]; dup {
		return errors.WrapRegistration(fmt.Sprintf("scenario %q already registered", s.ID))
	}
	r.byID[s.ID] = s
	r.scenarios = append(r.scenarios, s)
	return nil
}

// MustRegister panics on registration failure; used for the built-in set.
func (r *Registry) MustRegister(s *Scenario) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get returns the scenario with the given id.
func (r *Registry) Get(id string) (*Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// List returns all scenarios in registration order.
func (r *Registry) List() []*Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Scenario(nil), r.scenarios...)
}

// ForTarget returns the scenarios applicable to the target, in
// registration order.
func (r *Registry) ForTarget(target *catalog.TargetProgram) []*Scenario {
	var out []*Scenario
	for _, s := range r.List() {
		if s.Applies(target) {
			out = append(out, s)
		}
	}
	return out
}

// Descriptors returns the serializable scenario catalog.
func (r *Registry) Descriptors() []Descriptor {
	var out []Descriptor
	for _, s := range r.List() {
		out = append(out, Descriptor{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Severity:    s.Severity,
		})
	}
	return out
}

// Len returns the number of registered scenarios.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenarios)
}
