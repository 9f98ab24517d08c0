// Package raydium derives Raydium AMM v4 pool keys from an OpenBook market
// and encodes the withdraw (remove liquidity) instruction.
package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/openbook"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

const (
	ammVersion    = 4
	marketVersion = 3

	instrWithdraw uint8 = 4
)

// PoolKeys is the full key set of an AMM v4 pool.
type PoolKeys struct {
	ID            solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	LpMint        solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	LpDecimals    uint8
	ProgramID     solana.PublicKey
	Authority     solana.PublicKey
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	WithdrawQueue solana.PublicKey
	LpVault       solana.PublicKey

	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

func associated(program, market solana.PublicKey, seed string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{program[:], market[:], []byte(seed)}, program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive %s: %w", seed, err)
	}
	return addr, nil
}

// DerivePoolKeys derives the pool keys of the pool seeded on market. The LP
// mint carries the base decimals.
func DerivePoolKeys(programs constants.Programs, market openbook.Market, baseDecimals, quoteDecimals uint8) (PoolKeys, error) {
	amm := programs.AmmV4
	keys := PoolKeys{
		BaseMint:         market.BaseMint,
		QuoteMint:        market.QuoteMint,
		BaseDecimals:     baseDecimals,
		QuoteDecimals:    quoteDecimals,
		LpDecimals:       baseDecimals,
		ProgramID:        amm,
		MarketProgramID:  programs.OpenBook,
		MarketID:         market.ID,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}

	targets := []struct {
		dst  *solana.PublicKey
		seed string
	}{
		{&keys.ID, constants.SeedAmmAssociated},
		{&keys.LpMint, constants.SeedLpMintAssociated},
		{&keys.BaseVault, constants.SeedCoinVaultAssociated},
		{&keys.QuoteVault, constants.SeedPcVaultAssociated},
		{&keys.LpVault, constants.SeedTempLpAssociated},
		{&keys.TargetOrders, constants.SeedTargetAssociated},
		{&keys.WithdrawQueue, constants.SeedWithdrawAssociated},
		{&keys.OpenOrders, constants.SeedOpenOrderAssociated},
	}
	for _, t := range targets {
		addr, err := associated(amm, market.ID, t.seed)
		if err != nil {
			return PoolKeys{}, err
		}
		*t.dst = addr
	}

	authority, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedAmmAuthority)}, amm)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("derive amm authority: %w", err)
	}
	keys.Authority = authority

	marketAuthority, err := openbook.VaultSigner(market.ID, market.VaultSignerNonce, programs.OpenBook)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("derive market authority: %w", err)
	}
	keys.MarketAuthority = marketAuthority
	return keys, nil
}

// JSON renders the keys in the backend's poolInfo form.
func (k PoolKeys) JSON() types.PoolKeys {
	return types.PoolKeys{
		ID:               k.ID.String(),
		BaseMint:         k.BaseMint.String(),
		QuoteMint:        k.QuoteMint.String(),
		LpMint:           k.LpMint.String(),
		BaseDecimals:     int(k.BaseDecimals),
		QuoteDecimals:    int(k.QuoteDecimals),
		LpDecimals:       int(k.LpDecimals),
		Version:          ammVersion,
		ProgramID:        k.ProgramID.String(),
		Authority:        k.Authority.String(),
		OpenOrders:       k.OpenOrders.String(),
		TargetOrders:     k.TargetOrders.String(),
		BaseVault:        k.BaseVault.String(),
		QuoteVault:       k.QuoteVault.String(),
		WithdrawQueue:    k.WithdrawQueue.String(),
		LpVault:          k.LpVault.String(),
		MarketVersion:    marketVersion,
		MarketProgramID:  k.MarketProgramID.String(),
		MarketID:         k.MarketID.String(),
		MarketAuthority:  k.MarketAuthority.String(),
		MarketBaseVault:  k.MarketBaseVault.String(),
		MarketQuoteVault: k.MarketQuoteVault.String(),
		MarketBids:       k.MarketBids.String(),
		MarketAsks:       k.MarketAsks.String(),
		MarketEventQueue: k.MarketEventQueue.String(),
	}
}

// WithdrawAccounts are the owner side accounts of a withdraw.
type WithdrawAccounts struct {
	UserLP    solana.PublicKey
	UserBase  solana.PublicKey
	UserQuote solana.PublicKey
	Owner     solana.PublicKey
}

// Withdraw burns amount LP tokens and returns base and quote to the owner.
func Withdraw(k PoolKeys, a WithdrawAccounts, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = instrWithdraw
	binary.LittleEndian.PutUint64(data[1:], amount)
	return solana.NewInstruction(k.ProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(constants.TokenProgramID, false, false),
		solana.NewAccountMeta(k.ID, true, false),
		solana.NewAccountMeta(k.Authority, false, false),
		solana.NewAccountMeta(k.OpenOrders, true, false),
		solana.NewAccountMeta(k.TargetOrders, true, false),
		solana.NewAccountMeta(k.LpMint, true, false),
		solana.NewAccountMeta(k.BaseVault, true, false),
		solana.NewAccountMeta(k.QuoteVault, true, false),
		solana.NewAccountMeta(k.WithdrawQueue, true, false),
		solana.NewAccountMeta(k.LpVault, true, false),
		solana.NewAccountMeta(k.MarketProgramID, false, false),
		solana.NewAccountMeta(k.MarketID, true, false),
		solana.NewAccountMeta(k.MarketBaseVault, true, false),
		solana.NewAccountMeta(k.MarketQuoteVault, true, false),
		solana.NewAccountMeta(k.MarketAuthority, false, false),
		solana.NewAccountMeta(a.UserLP, true, false),
		solana.NewAccountMeta(a.UserBase, true, false),
		solana.NewAccountMeta(a.UserQuote, true, false),
		solana.NewAccountMeta(a.Owner, false, true),
		solana.NewAccountMeta(k.MarketEventQueue, true, false),
		solana.NewAccountMeta(k.MarketBids, true, false),
		solana.NewAccountMeta(k.MarketAsks, true, false),
	}, data)
}
