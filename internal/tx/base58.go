// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package tx

import (
	"fmt"
	"math/big"
)

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var b58Index = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range b58Alphabet {
		idx[c] = int8(i)
	}
	return idx
}()

// EncodeBase58 encodes raw bytes using the Bitcoin base58 alphabet.
func EncodeBase58(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	n := new(big.Int).SetBytes(data)
	radix := big.NewInt(58)
	mod := new(big.Int)

	out := make([]byte, 0, len(data)*2)
	for n.Sign() > 0 {
		n.DivMod(n, radix, mod)
		out = append(out, b58Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, '1')
	}

	// Digits were produced least significant first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// DecodeBase58 decodes a Bitcoin-alphabet base58 string.
func DecodeBase58(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}

	zeros := 0
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}

	n := new(big.Int)
	radix := big.NewInt(58)
	for _, c := range s {
		if c >= 128 || b58Index[c] < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", c)
		}
		n.Mul(n, radix)
		n.Add(n, big.NewInt(int64(b58Index[c])))
	}

	body := n.Bytes()
	out := make([]byte, zeros+len(body))
	copy(out[zeros:], body)
	return out, nil
}
