// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
	"github.com/dotandev/vigil/internal/tx"
)

// Registry holds the registered targets. Registration fails fast on
// malformed entries; lookups after load never mutate.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*TargetProgram
	order   []string
}

// NewRegistry returns an empty target registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]*TargetProgram)}
}

// Register validates and adds a target. Duplicate names, invalid addresses
// and unknown profiles are rejected.
func (r *Registry) Register(name, address, profile string, accounts map[string]string) (*TargetProgram, error) {
	if name == "" {
		return nil, errors.WrapRegistration("target name must not be empty")
	}
	addr := tx.Address(address)
	if !addr.IsValid() {
		return nil, errors.WrapRegistration(fmt.Sprintf("target %q: invalid program address %q", name, address))
	}
	build, ok := profiles[profile]
	if !ok {
		return nil, errors.WrapRegistration(fmt.Sprintf("target %q: unknown profile %q (have %v)", name, profile, ProfileNames()))
	}

	resolved := make(map[string]tx.Address, len(accounts))
	for accName, accAddr := range accounts {
		a := tx.Address(accAddr)
		if !a.IsValid() {
			return nil, errors.WrapRegistration(fmt.Sprintf("target %q: account %q has invalid address %q", name, accName, accAddr))
		}
		resolved[accName] = a
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.targets[name]; exists {
		return nil, errors.WrapRegistration(fmt.Sprintf("target %q already registered", name))
	}

	target := &TargetProgram{
		Name:     name,
		Address:  addr,
		Accounts: resolved,
		surface:  build(addr, resolved),
	}
	r.targets[name] = target
	r.order = append(r.order, name)

	logger.Logger.Debug("target registered",
		"name", name,
		"address", address,
		"profile", profile,
		"capabilities", target.Capabilities())
	return target, nil
}

// Get returns the target with the given name.
func (r *Registry) Get(name string) (*TargetProgram, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}

// List returns all targets in registration order.
func (r *Registry) List() []*TargetProgram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TargetProgram, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.targets[name])
	}
	return out
}

// Names returns the registered target names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}
