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

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is.
//
// Infrastructure errors (RPC, timeout, missing accounts) are deliberately
// distinct from simulation rejections: a transaction the cluster refuses to
// execute is a security verdict, a transport failure is not.
var (
	ErrRPCConnectionFailed = errors.New("RPC connection failed")
	ErrRPCTimeout          = errors.New("RPC request timed out")
	ErrAccountNotFound     = errors.New("account not found")
	ErrScenarioBuild       = errors.New("scenario build failed")
	ErrScenarioTimeout     = errors.New("scenario execution timed out")
	ErrSimulationFailed    = errors.New("simulation execution failed")
	ErrCommitNotAllowed    = errors.New("transaction commit not allowed in safe mode")
	ErrRegistration        = errors.New("registration error")
	ErrMarshalFailed       = errors.New("failed to marshal request")
	ErrUnmarshalFailed     = errors.New("failed to unmarshal response")
	ErrInvalidNetwork      = errors.New("invalid network")
	ErrConfig              = errors.New("configuration error")
	ErrValidation          = errors.New("validation error")
	ErrStore               = errors.New("store error")
)

// Wrap functions for consistent error wrapping

func WrapRPCConnectionFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrRPCConnectionFailed, err)
}

func WrapRPCTimeout(err error) error {
	return fmt.Errorf("%w: %w", ErrRPCTimeout, err)
}

func WrapAccountNotFound(address string) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, address)
}

func WrapScenarioBuild(scenarioID string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrScenarioBuild, scenarioID, err)
}

func WrapScenarioTimeout(scenarioID string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrScenarioTimeout, scenarioID, err)
}

func WrapSimulationFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrSimulationFailed, err)
}

func WrapRegistration(msg string) error {
	return fmt.Errorf("%w: %s", ErrRegistration, msg)
}

func WrapMarshalFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrMarshalFailed, err)
}

func WrapUnmarshalFailed(err error, output string) error {
	return fmt.Errorf("%w: %w, output: %s", ErrUnmarshalFailed, err, output)
}

func WrapInvalidNetwork(network string) error {
	return fmt.Errorf("%w: %s. Must be one of: mainnet-beta, devnet, testnet, localnet", ErrInvalidNetwork, network)
}

func WrapConfigError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfig, msg, err)
}

func WrapValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func WrapStoreError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, msg, err)
}

// IsInfrastructure reports whether err belongs to the infrastructure family
// (transport, timeout, missing account, store). The orchestrator records
// these as status "error" rather than a pass/fail security verdict.
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrRPCConnectionFailed) ||
		errors.Is(err, ErrRPCTimeout) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrScenarioTimeout) ||
		errors.Is(err, ErrStore) ||
		errors.Is(err, ErrScenarioBuild)
}
