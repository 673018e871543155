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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("base error")

	wrappedErr := WrapRPCConnectionFailed(baseErr)
	assert.True(t, errors.Is(wrappedErr, ErrRPCConnectionFailed))
	assert.True(t, errors.Is(wrappedErr, baseErr))

	wrappedErr = WrapRPCTimeout(baseErr)
	assert.True(t, errors.Is(wrappedErr, ErrRPCTimeout))
	assert.True(t, errors.Is(wrappedErr, baseErr))

	wrappedErr = WrapAccountNotFound("So11111111111111111111111111111111111111112")
	assert.True(t, errors.Is(wrappedErr, ErrAccountNotFound))
	assert.Contains(t, wrappedErr.Error(), "So11111111111111111111111111111111111111112")

	wrappedErr = WrapScenarioBuild("reentrancy_double_claim", baseErr)
	assert.True(t, errors.Is(wrappedErr, ErrScenarioBuild))
	assert.Contains(t, wrappedErr.Error(), "reentrancy_double_claim")

	wrappedErr = WrapRegistration("scenario references undefined target")
	assert.True(t, errors.Is(wrappedErr, ErrRegistration))
	assert.Contains(t, wrappedErr.Error(), "undefined target")

	wrappedErr = WrapInvalidNetwork("bogusnet")
	assert.True(t, errors.Is(wrappedErr, ErrInvalidNetwork))
	assert.Contains(t, wrappedErr.Error(), "bogusnet")
	assert.Contains(t, wrappedErr.Error(), "mainnet-beta, devnet, testnet, localnet")
}

func TestIsInfrastructure(t *testing.T) {
	base := fmt.Errorf("boom")

	assert.True(t, IsInfrastructure(WrapRPCConnectionFailed(base)))
	assert.True(t, IsInfrastructure(WrapRPCTimeout(base)))
	assert.True(t, IsInfrastructure(WrapAccountNotFound("abc")))
	assert.True(t, IsInfrastructure(WrapScenarioTimeout("dos_flood", base)))
	assert.True(t, IsInfrastructure(WrapScenarioBuild("dos_flood", base)))

	// Security-negative outcomes and registration errors are not infrastructure.
	assert.False(t, IsInfrastructure(WrapSimulationFailed(base)))
	assert.False(t, IsInfrastructure(WrapRegistration("dup id")))
	assert.False(t, IsInfrastructure(nil))
}

func TestErrorComparison(t *testing.T) {
	err1 := WrapRPCConnectionFailed(fmt.Errorf("test"))
	err2 := WrapRPCTimeout(fmt.Errorf("test"))

	assert.True(t, errors.Is(err1, ErrRPCConnectionFailed))
	assert.False(t, errors.Is(err1, ErrRPCTimeout))

	assert.True(t, errors.Is(err2, ErrRPCTimeout))
	assert.False(t, errors.Is(err2, ErrRPCConnectionFailed))
}
