// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dotandev/vigil/internal/errors"
	"github.com/dotandev/vigil/internal/logger"
)

// File is the on-disk catalog format:
//
//	programs:
//	  - name: swap
//	    address: Swap111...
//	    profile: swap
//	    accounts:
//	      pool: Poo1...
type File struct {
	Programs []Entry `yaml:"programs"`
}

// Entry is one catalog entry binding a deployed address to a profile.
type Entry struct {
	Name     string            `yaml:"name"`
	Address  string            `yaml:"address"`
	Profile  string            `yaml:"profile"`
	Accounts map[string]string `yaml:"accounts,omitempty"`
}

// LoadFile reads a YAML catalog and registers every entry into a fresh
// registry. The first malformed entry aborts the load.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(fmt.Sprintf("read catalog %s", path), err)
	}
	return Load(raw)
}

// Load parses catalog bytes and registers every entry.
func Load(raw []byte) (*Registry, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.WrapUnmarshalFailed(err, "catalog")
	}
	if len(file.Programs) == 0 {
		return nil, errors.WrapValidationError("catalog defines no programs")
	}

	registry := NewRegistry()
	for _, entry := range file.Programs {
		if _, err := registry.Register(entry.Name, entry.Address, entry.Profile, entry.Accounts); err != nil {
			return nil, err
		}
	}

	logger.Logger.Info("catalog loaded", "targets", registry.Len())
	return registry, nil
}
