// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypairFromHexSeed(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	kp, err := NewKeypairFromHex(hex.EncodeToString(seed))
	require.NoError(t, err)

	data := []byte("attack probe")
	sig, err := kp.Sign(data)
	require.NoError(t, err)

	pub, err := kp.PublicKey()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), data, sig))
	assert.Equal(t, "ed25519", kp.Algorithm())
}

func TestKeypairFromHexRejectsBadInput(t *testing.T) {
	_, err := NewKeypairFromHex("not-hex")
	assert.Error(t, err)

	_, err = NewKeypairFromHex("abcd")
	assert.Error(t, err)
	var serr *SignerError
	assert.ErrorAs(t, err, &serr)
}

func TestGenerateKeypairIsDisposable(t *testing.T) {
	a, err := GenerateKeypair()
	require.NoError(t, err)
	b, err := GenerateKeypair()
	require.NoError(t, err)

	assert.NotEqual(t, a.Address(), b.Address())
	assert.True(t, a.Address().IsValid())
}

func TestSignMessageMatchesSign(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("serialized message bytes")
	s1, err := kp.Sign(msg)
	require.NoError(t, err)
	s2, err := kp.SignMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestDeriveAddressDeterministic(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	program := kp.Address()

	a, err := DeriveAddress(program, 255, []byte("vault"), []byte("estate"))
	require.NoError(t, err)
	b, err := DeriveAddress(program, 255, []byte("vault"), []byte("estate"))
	require.NoError(t, err)
	c, err := DeriveAddress(program, 254, []byte("vault"), []byte("estate"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, a.IsValid())
}
