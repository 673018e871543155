// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package detect

import (
	"fmt"
	"sync"

	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
)

// Registry holds detection rules in registration order. New rules are
// added through Register; nothing in the engine special-cases any rule.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
	byID  map[string]struct{}
}

// NewRegistry returns an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]struct{})}
}

// Register adds a rule. IDs must be unique; rules with no predicate or an
// unknown category are rejected.
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" || rule.Name == "" {
		return errors.WrapRegistration("rule id and name must not be empty")
	}
	if rule.Evaluate == nil {
		return errors.WrapRegistration(fmt.Sprintf("rule %q has no predicate", rule.ID))
	}
	if !ValidCategory(string(rule.Category)) {
		return errors.WrapRegistration(fmt.Sprintf("rule %q: unknown category %q", rule.ID, rule.Category))
	}
	if rule.Severity.Rank() == 0 {
		return errors.WrapRegistration(fmt.Sprintf("rule %q: unknown severity %q", rule.ID, rule.Severity))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[rule.ID]; dup {
		return errors.WrapRegistration(fmt.Sprintf("rule %q already registered", rule.ID))
	}
	r.byID[rule.ID] = struct{}{}
	r.rules = append(r.rules, rule)
	return nil
}

// MustRegister registers a rule and panics on failure; used for the
// built-in set, which is statically known to be valid.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Evaluate runs every registered rule against the context and returns all
// matches in registration order.
func (r *Registry) Evaluate(ctx *Context) []Match {
	r.mu.RLock()
	rules := r.rules
	r.mu.RUnlock()

	var matches []Match
	for _, rule := range rules {
		if rule.Evaluate(ctx) {
			logger.Logger.Debug("detection rule matched", "rule", rule.ID, "severity", rule.Severity)
			matches = append(matches, Match{Rule: rule})
		}
	}
	return matches
}

// Descriptors returns the serializable rule catalog in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, Descriptor{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Category:    rule.Category,
			Severity:    rule.Severity,
		})
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
