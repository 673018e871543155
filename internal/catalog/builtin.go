// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"

	"github.com/dotandev/vigil/internal/signer"
	"github.com/dotandev/vigil/internal/tx"
)

// A profile binds a known program family to its capability surface. The
// built-in profiles cover the protocol family this tool was written for:
// the app factory, the token swap, the estate/inheritance program, and a
// generic token vault.
type profileFunc func(program tx.Address, accounts map[string]tx.Address) interface{}

var profiles = map[string]profileFunc{
	"app_factory": func(p tx.Address, a map[string]tx.Address) interface{} {
		return &appFactorySurface{program: p, accounts: a}
	},
	"swap": func(p tx.Address, a map[string]tx.Address) interface{} {
		return &swapSurface{program: p, accounts: a}
	},
	"estate": func(p tx.Address, a map[string]tx.Address) interface{} {
		return &estateSurface{program: p, accounts: a}
	},
	"token_vault": func(p tx.Address, a map[string]tx.Address) interface{} {
		return &tokenVaultSurface{program: p, accounts: a}
	},
}

// ProfileNames returns the built-in profile names, for validation messages
// and the targets listing.
func ProfileNames() []string {
	return []string{"app_factory", "estate", "swap", "token_vault"}
}

func requireAccount(accounts map[string]tx.Address, name string) (tx.Address, error) {
	addr, ok := accounts[name]
	if !ok {
		return "", fmt.Errorf("catalog entry missing required account %q", name)
	}
	return addr, nil
}

func readU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// appFactorySurface targets the platform/app-factory program:
// update_platform_settings is authority-gated, purchase_app_access moves
// lamports from the buyer to the app treasury.
type appFactorySurface struct {
	program  tx.Address
	accounts map[string]tx.Address
}

func (s *appFactorySurface) BuildPrivilegedOp(caller tx.Address) (tx.Instruction, error) {
	config, err := requireAccount(s.accounts, "platform_config")
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("update_platform_settings")
	// new platform fee in basis points
	data = appendU64(data, 9999)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: config, Writable: true},
			{Address: caller, Signer: true},
		},
		Data: data,
	}, nil
}

// Anchor account layout: 8-byte discriminator, authority pubkey, fee u64.
func (s *appFactorySurface) DecodeFields(data []byte) map[string]string {
	fields := make(map[string]string)
	if len(data) >= 40 {
		fields["authority"] = tx.AddressFromBytes(data[8:40]).String()
	}
	if len(data) >= 48 {
		fields["platform_fee_bps"] = fmt.Sprintf("%d", readU64(data[40:48]))
	}
	return fields
}

func (s *appFactorySurface) BuildTransfer(from, to tx.Address, amount uint64) (tx.Instruction, error) {
	config, err := requireAccount(s.accounts, "platform_config")
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("purchase_app_access")
	data = appendU64(data, amount)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: config, Writable: true},
			{Address: from, Signer: true, Writable: true},
			{Address: to, Writable: true},
		},
		Data: data,
	}, nil
}

// swapSurface targets the token swap program. The oracle update maps to
// the randomness fulfillment callback, which only the VRF authority should
// be able to invoke.
type swapSurface struct {
	program  tx.Address
	accounts map[string]tx.Address
}

func (s *swapSurface) BuildSwap(trader tx.Address, amountIn uint64) (tx.Instruction, error) {
	pool, err := requireAccount(s.accounts, "pool")
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("swap")
	data = appendU64(data, amountIn)
	// minimum_amount_out: zero so the pool's own validation is what rejects
	data = appendU64(data, 0)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: pool, Writable: true},
			{Address: trader, Signer: true, Writable: true},
		},
		Data: data,
	}, nil
}

// Pool account layout: discriminator, admin pubkey, fee u64.
func (s *swapSurface) DecodeFields(data []byte) map[string]string {
	fields := make(map[string]string)
	if len(data) >= 40 {
		fields["admin"] = tx.AddressFromBytes(data[8:40]).String()
	}
	if len(data) >= 48 {
		fields["swap_fee_bps"] = fmt.Sprintf("%d", readU64(data[40:48]))
	}
	return fields
}

func (s *swapSurface) BuildOracleUpdate(caller tx.Address, value int64) (tx.Instruction, error) {
	pool, err := requireAccount(s.accounts, "pool")
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("fulfill_randomness")
	data = appendI64(data, value)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: pool, Writable: true},
			{Address: caller, Signer: true},
		},
		Data: data,
	}, nil
}

// estateSurface targets the estate/inheritance program: claim_token pays
// out a beneficiary's share, emergency_unlock is owner-gated.
type estateSurface struct {
	program  tx.Address
	accounts map[string]tx.Address
}

func (s *estateSurface) BuildClaim(claimer tx.Address) (tx.Instruction, error) {
	estate, err := requireAccount(s.accounts, "estate")
	if err != nil {
		return tx.Instruction{}, err
	}
	vault, err := requireAccount(s.accounts, "vault")
	if err != nil {
		return tx.Instruction{}, err
	}
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: estate, Writable: true},
			{Address: vault, Writable: true},
			{Address: claimer, Signer: true, Writable: true},
		},
		Data: anchorDiscriminator("claim_token"),
	}, nil
}

// Estate account layout: discriminator, owner pubkey, locked flag.
func (s *estateSurface) DecodeFields(data []byte) map[string]string {
	fields := make(map[string]string)
	if len(data) >= 40 {
		fields["owner"] = tx.AddressFromBytes(data[8:40]).String()
	}
	if len(data) >= 41 {
		fields["locked"] = fmt.Sprintf("%t", data[40] != 0)
	}
	return fields
}

func (s *estateSurface) BuildPrivilegedOp(caller tx.Address) (tx.Instruction, error) {
	estate, err := requireAccount(s.accounts, "estate")
	if err != nil {
		return tx.Instruction{}, err
	}
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: estate, Writable: true},
			{Address: caller, Signer: true},
		},
		Data: anchorDiscriminator("emergency_unlock"),
	}, nil
}

// tokenVaultSurface is the generic vault profile for programs that only
// expose deposit/withdraw plus an authority rotation. When the catalog
// does not name a vault account, the canonical "vault" seed PDA is used.
type tokenVaultSurface struct {
	program  tx.Address
	accounts map[string]tx.Address
}

func (s *tokenVaultSurface) vaultAccount() (tx.Address, error) {
	if addr, ok := s.accounts["vault"]; ok {
		return addr, nil
	}
	return signer.DeriveAddress(s.program, 255, []byte("vault"))
}

func (s *tokenVaultSurface) BuildTransfer(from, to tx.Address, amount uint64) (tx.Instruction, error) {
	vault, err := s.vaultAccount()
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("withdraw")
	data = appendU64(data, amount)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: vault, Writable: true},
			{Address: from, Signer: true},
			{Address: to, Writable: true},
		},
		Data: data,
	}, nil
}

// Vault account layout: discriminator, authority pubkey.
func (s *tokenVaultSurface) DecodeFields(data []byte) map[string]string {
	fields := make(map[string]string)
	if len(data) >= 40 {
		fields["authority"] = tx.AddressFromBytes(data[8:40]).String()
	}
	return fields
}

func (s *tokenVaultSurface) BuildPrivilegedOp(caller tx.Address) (tx.Instruction, error) {
	vault, err := s.vaultAccount()
	if err != nil {
		return tx.Instruction{}, err
	}
	newAuthority, err := caller.Bytes()
	if err != nil {
		return tx.Instruction{}, err
	}
	data := anchorDiscriminator("set_authority")
	data = append(data, newAuthority[:]...)
	return tx.Instruction{
		ProgramID: s.program,
		Accounts: []tx.AccountMeta{
			{Address: vault, Writable: true},
			{Address: caller, Signer: true},
		},
		Data: data,
	}, nil
}
