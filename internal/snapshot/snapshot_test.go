package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/tx"
)

const (
	systemProgram = "11111111111111111111111111111111"
	walletAddr    = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

func tokenAccountData(t *testing.T, mint, owner tx.Address, amount uint64) []byte {
	t.Helper()
	data := make([]byte, tokenAccountSize)
	mintBytes, err := mint.Bytes()
	require.NoError(t, err)
	ownerBytes, err := owner.Bytes()
	require.NoError(t, err)
	copy(data[0:32], mintBytes[:])
	copy(data[32:64], ownerBytes[:])
	for i := 0; i < 8; i++ {
		data[64+i] = byte(amount >> (8 * i))
	}
	return data
}

func mintAccountData(t *testing.T, authority tx.Address, supply uint64, decimals byte) []byte {
	t.Helper()
	data := make([]byte, mintAccountSize)
	data[0] = 1 // mint_authority present
	authBytes, err := authority.Bytes()
	require.NoError(t, err)
	copy(data[4:36], authBytes[:])
	for i := 0; i < 8; i++ {
		data[36+i] = byte(supply >> (8 * i))
	}
	data[44] = decimals
	// freeze_authority absent: tag at [46:50] stays zero
	return data
}

func TestCaptureLamportsAndMissingAccounts(t *testing.T) {
	client := chain.NewMockClient()
	client.SetAccount(walletAddr, &chain.AccountInfo{Lamports: 1_000_000, Owner: systemProgram})

	capt := NewCapturer(client)
	snap, err := capt.Capture(context.Background(), []tx.Address{tx.Address(walletAddr), "missing1111"}, nil)
	require.NoError(t, err)

	wallet, ok := snap.Account(tx.Address(walletAddr))
	require.True(t, ok)
	assert.True(t, wallet.Exists)
	assert.Equal(t, uint64(1_000_000), wallet.Lamports)

	gone, ok := snap.Account("missing1111")
	require.True(t, ok)
	assert.False(t, gone.Exists)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestCaptureDecodesTokenAccount(t *testing.T) {
	mint := tx.Address(systemProgram)
	owner := tx.Address(walletAddr)
	tokenAcct := tx.Address("So11111111111111111111111111111111111111112")

	client := chain.NewMockClient()
	client.SetAccount(tokenAcct.String(), &chain.AccountInfo{
		Lamports: 2_039_280,
		Owner:    chain.TokenProgramID,
		Data:     tokenAccountData(t, mint, owner, 750),
	})

	snap, err := NewCapturer(client).Capture(context.Background(), []tx.Address{tokenAcct}, nil)
	require.NoError(t, err)

	state, _ := snap.Account(tokenAcct)
	assert.Equal(t, uint64(750), state.TokenBalances[mint.String()])
	assert.Equal(t, owner.String(), state.DecodedFields["owner"])
}

func TestCaptureDecodesMint(t *testing.T) {
	mintAddr := tx.Address("So11111111111111111111111111111111111111112")
	client := chain.NewMockClient()
	client.SetAccount(mintAddr.String(), &chain.AccountInfo{
		Lamports: 1_461_600,
		Owner:    chain.TokenProgramID,
		Data:     mintAccountData(t, tx.Address(walletAddr), 21_000_000, 9),
	})

	snap, err := NewCapturer(client).Capture(context.Background(), []tx.Address{mintAddr}, nil)
	require.NoError(t, err)

	state, _ := snap.Account(mintAddr)
	assert.Equal(t, "21000000", state.DecodedFields["total_supply"])
	assert.Equal(t, "9", state.DecodedFields["decimals"])
	assert.Equal(t, walletAddr, state.DecodedFields["mint_authority"])
	assert.Equal(t, "none", state.DecodedFields["freeze_authority"])
}

func TestCaptureUsesTargetFieldDecoder(t *testing.T) {
	reg, err := catalog.Load(catalog.SampleCatalog())
	require.NoError(t, err)
	target, ok := reg.Get("app_factory")
	require.True(t, ok)

	config, _ := target.Account("platform_config")
	data := make([]byte, 48)
	authBytes, err := tx.Address(walletAddr).Bytes()
	require.NoError(t, err)
	copy(data[8:40], authBytes[:])
	data[40] = 250 // fee bps, little-endian u64

	client := chain.NewMockClient()
	client.SetAccount(config.String(), &chain.AccountInfo{
		Lamports: 1,
		Owner:    target.Address.String(),
		Data:     data,
	})

	snap, err := NewCapturer(client).Capture(context.Background(), []tx.Address{config}, target)
	require.NoError(t, err)

	state, _ := snap.Account(config)
	assert.Equal(t, walletAddr, state.DecodedFields["authority"])
	assert.Equal(t, "250", state.DecodedFields["platform_fee_bps"])
}

func TestCommonAccounts(t *testing.T) {
	pre := &Snapshot{Accounts: map[tx.Address]AccountState{
		"a": {Address: "a", Exists: true},
		"b": {Address: "b", Exists: true},
		"c": {Address: "c", Exists: false},
	}}
	post := &Snapshot{Accounts: map[tx.Address]AccountState{
		"a": {Address: "a", Exists: true},
		"c": {Address: "c", Exists: true},
	}}

	common := CommonAccounts(pre, post)
	assert.ElementsMatch(t, []tx.Address{"a"}, common)
}
