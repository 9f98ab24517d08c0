package launch

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/openbook"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/raydium"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// PoolKeys derives the AMM v4 keys of the pool seeded on market.
func (e *Executor) PoolKeys(ctx context.Context, market openbook.Market) (raydium.PoolKeys, error) {
	baseMint, err := e.chain.GetMint(ctx, market.BaseMint)
	if err != nil {
		return raydium.PoolKeys{}, fmt.Errorf("base mint: %w", err)
	}
	quoteMint, err := e.chain.GetMint(ctx, market.QuoteMint)
	if err != nil {
		return raydium.PoolKeys{}, fmt.Errorf("quote mint: %w", err)
	}
	return raydium.DerivePoolKeys(e.programs, market, baseMint.Decimals, quoteMint.Decimals)
}

// PoolInfo returns the pool keys of token/WSOL on its first market, in the
// form the backend sell endpoint expects.
func (e *Executor) PoolInfo(ctx context.Context, token solana.PublicKey) (*types.PoolKeys, error) {
	markets, err := e.FindMarkets(ctx, token, constants.WSOLMint)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: %s/WSOL", types.ErrMarketNotFound, token)
	}
	keys, err := e.PoolKeys(ctx, markets[0])
	if err != nil {
		return nil, err
	}
	info := keys.JSON()
	return &info, nil
}

// lpPosition is the owner's LP account on one pool.
type lpPosition struct {
	keys    raydium.PoolKeys
	account solana.PublicKey
	amount  uint64
}

// findLP returns the first pool of base/quote on which owner has an LP
// token account.
func (e *Executor) findLP(ctx context.Context, base, quote, owner solana.PublicKey) (*lpPosition, error) {
	markets, err := e.FindMarkets(ctx, base, quote)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrMarketNotFound, base, quote)
	}
	for _, m := range markets {
		keys, err := e.PoolKeys(ctx, m)
		if err != nil {
			return nil, err
		}
		raw, ata, err := e.chain.GetTokenAmount(ctx, owner, keys.LpMint)
		if err != nil {
			if errors.Is(err, types.ErrATANotFound) {
				continue
			}
			return nil, err
		}
		return &lpPosition{keys: keys, account: ata, amount: raw}, nil
	}
	return nil, fmt.Errorf("%w: no LP account for %s/%s", types.ErrATANotFound, base, quote)
}

// LPBalance is owner's LP balance in whole tokens on the first pool of
// base/quote where owner holds an LP account, "0" otherwise.
func (e *Executor) LPBalance(ctx context.Context, base, quote, owner solana.PublicKey) string {
	pos, err := e.findLP(ctx, base, quote, owner)
	if err != nil {
		e.log.Debug().Err(err).Msg("lp balance unavailable")
		return "0"
	}
	return wholeUnits(pos.amount, pos.keys.LpDecimals)
}

func (e *Executor) lpShare(ctx context.Context, base, quote solana.PublicKey, percent string) (*lpPosition, uint64, error) {
	pct, err := amount.Parse(percent)
	if err != nil {
		return nil, 0, types.NewValidationError("percent", err.Error())
	}
	if err := types.ValidatePercent("percent", pct); err != nil {
		return nil, 0, err
	}
	pos, err := e.findLP(ctx, base, quote, e.owner.PublicKey())
	if err != nil {
		return nil, 0, err
	}
	share := amount.Percent(pos.amount, pct)
	if share == 0 {
		return nil, 0, fmt.Errorf("%w: no LP tokens to use", types.ErrInsufficientBalance)
	}
	return pos, share, nil
}

// RemoveLiquidityByPercent withdraws percent of the owner's LP position.
// When the quote is WSOL the wrapped SOL is unwrapped afterwards.
func (e *Executor) RemoveLiquidityByPercent(ctx context.Context, base, quote solana.PublicKey, percent string) (*Result, error) {
	pos, share, err := e.lpShare(ctx, base, quote, percent)
	if err != nil {
		return nil, err
	}
	owner := e.owner.PublicKey()

	createBase, baseATA, err := spltoken.CreateATAIdempotent(owner, owner, base)
	if err != nil {
		return nil, err
	}
	createQuote, quoteATA, err := spltoken.CreateATAIdempotent(owner, owner, quote)
	if err != nil {
		return nil, err
	}
	ixs := []solana.Instruction{
		createBase,
		createQuote,
		raydium.Withdraw(pos.keys, raydium.WithdrawAccounts{
			UserLP:    pos.account,
			UserBase:  baseATA,
			UserQuote: quoteATA,
			Owner:     owner,
		}, share),
	}
	if quote.Equals(constants.WSOLMint) {
		ixs = append(ixs, spltoken.CloseAccount(quoteATA, owner, owner))
	}
	tx, err := e.Build(ctx, ixs...)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("pool", pos.keys.ID.String()).Uint64("lp", share).Msg("removing liquidity")
	return e.Execute(ctx, types.TxRemoveLP, []*solana.Transaction{tx})
}

// BurnLPByPercent burns percent of the owner's LP tokens.
func (e *Executor) BurnLPByPercent(ctx context.Context, base, quote solana.PublicKey, percent string) (*Result, error) {
	pos, share, err := e.lpShare(ctx, base, quote, percent)
	if err != nil {
		return nil, err
	}
	tx, err := e.Build(ctx, spltoken.Burn(pos.account, pos.keys.LpMint, e.owner.PublicKey(), share))
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("pool", pos.keys.ID.String()).Uint64("lp", share).Msg("burning lp")
	return e.Execute(ctx, types.TxBurnLP, []*solana.Transaction{tx})
}
