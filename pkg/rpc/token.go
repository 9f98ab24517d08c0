package rpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// TokenAccount is a token account address with its decoded content.
type TokenAccount struct {
	Address solana.PublicKey
	spltoken.Account
}

// GetMint reads and decodes a mint account.
func (c *Client) GetMint(ctx context.Context, mint solana.PublicKey) (spltoken.Mint, error) {
	data, err := c.GetAccountData(ctx, mint)
	if err != nil {
		return spltoken.Mint{}, fmt.Errorf("%w: %v", types.ErrMintNotFound, err)
	}
	return spltoken.DecodeMint(data)
}

// GetMintDecimals returns the decimals of mint.
func (c *Client) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	m, err := c.GetMint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}

// GetTokenAmount returns the raw amount held by owner's associated token
// account for mint, or types.ErrATANotFound.
func (c *Client) GetTokenAmount(ctx context.Context, owner, mint solana.PublicKey) (uint64, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, solana.PublicKey{}, fmt.Errorf("derive ata: %w", err)
	}
	data, err := c.GetAccountData(ctx, ata)
	if err != nil {
		return 0, ata, fmt.Errorf("%w: %s", types.ErrATANotFound, ata)
	}
	acc, err := spltoken.DecodeAccount(data)
	if err != nil {
		return 0, ata, err
	}
	return acc.Amount, ata, nil
}

// TokenAccountsByOwner lists the SPL token accounts owned by owner.
func (c *Client) TokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]TokenAccount, error) {
	res, err := c.GetProgramAccounts(ctx, constants.TokenProgramID,
		solanarpc.RPCFilter{DataSize: constants.TokenAccountSize},
		solanarpc.RPCFilter{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 32, Bytes: solana.Base58(owner[:])}},
	)
	if err != nil {
		return nil, err
	}
	out := make([]TokenAccount, 0, len(res))
	for _, keyed := range res {
		if keyed == nil || keyed.Account == nil || keyed.Account.Data == nil {
			continue
		}
		acc, err := spltoken.DecodeAccount(keyed.Account.Data.GetBinary())
		if err != nil {
			c.log.Warn().Str("account", keyed.Pubkey.String()).Err(err).Msg("skip token account")
			continue
		}
		out = append(out, TokenAccount{Address: keyed.Pubkey, Account: acc})
	}
	return out, nil
}
