// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package tx

import (
	"encoding/base64"
	"fmt"
	"sort"
)

// compiledKey tracks how one address is used across the whole transaction.
type compiledKey struct {
	addr     Address
	signer   bool
	writable bool
	order    int
}

// MessageHeader mirrors the three-byte legacy message header.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is a compiled legacy message: the canonical account table plus
// index-form instructions, ready for signing and wire encoding.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Address
	RecentBlockhash string
	Instructions    []CompiledInstruction
}

// CompiledInstruction references accounts by index into the message's table.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// appendCompactU16 encodes n in the compact-u16 (shortvec) format used by
// the legacy wire layout.
func appendCompactU16(buf []byte, n int) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// CompileMessage builds the canonical account table and index-form
// instructions. Account ordering follows the legacy layout: writable
// signers, readonly signers, writable non-signers, readonly non-signers;
// within each class, first-use order is preserved. The fee payer is always
// the first writable signer.
func (t *Transaction) CompileMessage() (*Message, error) {
	if t.FeePayer == "" {
		return nil, fmt.Errorf("transaction has no fee payer")
	}
	if len(t.Instructions) == 0 {
		return nil, fmt.Errorf("transaction has no instructions")
	}
	if t.RecentBlockhash == "" {
		return nil, fmt.Errorf("transaction has no recent blockhash")
	}

	keys := map[Address]*compiledKey{}
	order := 0
	upsert := func(addr Address, signer, writable bool) {
		k, ok := keys[addr]
		if !ok {
			keys[addr] = &compiledKey{addr: addr, signer: signer, writable: writable, order: order}
			order++
			return
		}
		// Privileges are unioned across all uses of the address.
		k.signer = k.signer || signer
		k.writable = k.writable || writable
	}

	upsert(t.FeePayer, true, true)
	for _, ins := range t.Instructions {
		for _, m := range ins.Accounts {
			upsert(m.Address, m.Signer, m.Writable)
		}
		upsert(ins.ProgramID, false, false)
	}

	all := make([]*compiledKey, 0, len(keys))
	for _, k := range keys {
		all = append(all, k)
	}
	classOf := func(k *compiledKey) int {
		switch {
		case k.signer && k.writable:
			return 0
		case k.signer:
			return 1
		case k.writable:
			return 2
		default:
			return 3
		}
	}
	sort.Slice(all, func(i, j int) bool {
		ci, cj := classOf(all[i]), classOf(all[j])
		if ci != cj {
			return ci < cj
		}
		if all[i].addr == t.FeePayer {
			return true
		}
		if all[j].addr == t.FeePayer {
			return false
		}
		return all[i].order < all[j].order
	})

	msg := &Message{RecentBlockhash: t.RecentBlockhash}
	index := make(map[Address]uint8, len(all))
	for i, k := range all {
		if i > 255 {
			return nil, fmt.Errorf("too many distinct accounts: %d", len(all))
		}
		msg.AccountKeys = append(msg.AccountKeys, k.addr)
		index[k.addr] = uint8(i)

		if k.signer {
			msg.Header.NumRequiredSignatures++
			if !k.writable {
				msg.Header.NumReadonlySignedAccounts++
			}
		} else if !k.writable {
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}

	for _, ins := range t.Instructions {
		ci := CompiledInstruction{
			ProgramIDIndex: index[ins.ProgramID],
			Data:           ins.Data,
		}
		for _, m := range ins.Accounts {
			ci.AccountIndexes = append(ci.AccountIndexes, index[m.Address])
		}
		msg.Instructions = append(msg.Instructions, ci)
	}

	return msg, nil
}

// Serialize encodes the message in the legacy wire layout.
func (m *Message) Serialize() ([]byte, error) {
	buf := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		raw, err := key.Bytes()
		if err != nil {
			return nil, err
		}
		buf = append(buf, raw[:]...)
	}

	bh, err := DecodeBase58(m.RecentBlockhash)
	if err != nil || len(bh) != 32 {
		return nil, fmt.Errorf("invalid recent blockhash %q", m.RecentBlockhash)
	}
	buf = append(buf, bh...)

	buf = appendCompactU16(buf, len(m.Instructions))
	for _, ins := range m.Instructions {
		buf = append(buf, ins.ProgramIDIndex)
		buf = appendCompactU16(buf, len(ins.AccountIndexes))
		buf = append(buf, ins.AccountIndexes...)
		buf = appendCompactU16(buf, len(ins.Data))
		buf = append(buf, ins.Data...)
	}

	return buf, nil
}

// MessageSigner produces a signature over a serialized message for one of
// the required signer addresses. internal/signer provides implementations.
type MessageSigner interface {
	Address() Address
	SignMessage(msg []byte) ([]byte, error)
}

// Sign compiles the message and collects one signature per required signer,
// in account-table order. Missing signers leave a zero signature slot so a
// partially signed transaction can still be simulated with sigVerify off.
func (t *Transaction) Sign(signers ...MessageSigner) error {
	msg, err := t.CompileMessage()
	if err != nil {
		return err
	}
	raw, err := msg.Serialize()
	if err != nil {
		return err
	}

	byAddr := make(map[Address]MessageSigner, len(signers))
	for _, s := range signers {
		byAddr[s.Address()] = s
	}

	t.signatures = make([][]byte, msg.Header.NumRequiredSignatures)
	for i := 0; i < int(msg.Header.NumRequiredSignatures); i++ {
		s, ok := byAddr[msg.AccountKeys[i]]
		if !ok {
			t.signatures[i] = make([]byte, 64)
			continue
		}
		sig, err := s.SignMessage(raw)
		if err != nil {
			return fmt.Errorf("signing for %s: %w", msg.AccountKeys[i], err)
		}
		t.signatures[i] = sig
	}
	return nil
}

// Serialize encodes the full transaction (signatures + message). Unsigned
// transactions get zeroed signature slots.
func (t *Transaction) Serialize() ([]byte, error) {
	msg, err := t.CompileMessage()
	if err != nil {
		return nil, err
	}
	rawMsg, err := msg.Serialize()
	if err != nil {
		return nil, err
	}

	sigs := t.signatures
	if len(sigs) == 0 {
		sigs = make([][]byte, msg.Header.NumRequiredSignatures)
		for i := range sigs {
			sigs[i] = make([]byte, 64)
		}
	}

	buf := appendCompactU16(nil, len(sigs))
	for _, sig := range sigs {
		if len(sig) != 64 {
			return nil, fmt.Errorf("invalid signature length %d", len(sig))
		}
		buf = append(buf, sig...)
	}
	buf = append(buf, rawMsg...)
	return buf, nil
}

// EncodeBase64 serializes the transaction and wraps it in base64, the form
// accepted by simulateTransaction and sendTransaction.
func (t *Transaction) EncodeBase64() (string, error) {
	raw, err := t.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
