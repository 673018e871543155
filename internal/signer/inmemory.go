// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dotandev/vigil/internal/tx"
)

// Keypair holds an Ed25519 private key in process memory and implements
// both Signer and tx.MessageSigner.
type Keypair struct {
	privateKey ed25519.PrivateKey
}

// NewKeypairFromHex creates a Keypair from a hex-encoded Ed25519 private
// key. The key may be either a 32-byte seed or a full 64-byte private key.
func NewKeypairFromHex(privateKeyHex string) (*Keypair, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, &SignerError{Op: "inmemory", Msg: "invalid private key hex", Err: err}
	}

	if len(raw) != ed25519.PrivateKeySize && len(raw) != ed25519.SeedSize {
		return nil, &SignerError{
			Op:  "inmemory",
			Msg: fmt.Sprintf("invalid private key length: %d", len(raw)),
		}
	}

	var priv ed25519.PrivateKey
	if len(raw) == ed25519.SeedSize {
		priv = ed25519.NewKeyFromSeed(raw)
	} else {
		priv = ed25519.PrivateKey(raw)
	}

	return &Keypair{privateKey: priv}, nil
}

// NewKeypairFromKey creates a Keypair from an existing ed25519.PrivateKey.
func NewKeypairFromKey(key ed25519.PrivateKey) *Keypair {
	return &Keypair{privateKey: key}
}

// GenerateKeypair creates a fresh random keypair. This is the disposable
// attacker identity used by scenario builders.
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, &SignerError{Op: "inmemory", Msg: "key generation failed", Err: err}
	}
	return &Keypair{privateKey: priv}, nil
}

// Sign produces an Ed25519 signature over the provided data.
func (k *Keypair) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(k.privateKey, data), nil
}

// PublicKey returns the raw Ed25519 public key bytes.
func (k *Keypair) PublicKey() ([]byte, error) {
	pub, ok := k.privateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, &SignerError{Op: "inmemory", Msg: "failed to derive public key"}
	}
	return []byte(pub), nil
}

// Algorithm returns "ed25519".
func (k *Keypair) Algorithm() string {
	return "ed25519"
}

// Address returns the keypair's base58 account address.
func (k *Keypair) Address() tx.Address {
	pub, _ := k.PublicKey()
	return tx.AddressFromBytes(pub)
}

// SignMessage implements tx.MessageSigner.
func (k *Keypair) SignMessage(msg []byte) ([]byte, error) {
	return k.Sign(msg)
}
