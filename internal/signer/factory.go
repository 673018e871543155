// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package signer

import "os"

// NewFromEnv creates a Keypair from the VIGIL_ATTACKER_KEY_HEX environment
// variable when present, otherwise it generates a fresh disposable keypair.
// Scenario builders always receive a non-privileged identity: there is
// deliberately no code path that loads an administrator key here.
func NewFromEnv() (*Keypair, error) {
	if keyHex := os.Getenv("VIGIL_ATTACKER_KEY_HEX"); keyHex != "" {
		return NewKeypairFromHex(keyHex)
	}
	return GenerateKeypair()
}
