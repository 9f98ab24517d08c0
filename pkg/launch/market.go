package launch

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/openbook"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// FindMarkets returns the OpenBook markets trading base against quote.
func (e *Executor) FindMarkets(ctx context.Context, base, quote solana.PublicKey) ([]openbook.Market, error) {
	res, err := e.chain.GetProgramAccounts(ctx, e.programs.OpenBook,
		solanarpc.RPCFilter{DataSize: openbook.MarketSize},
		solanarpc.RPCFilter{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: openbook.BaseMintOffset, Bytes: solana.Base58(base[:])}},
		solanarpc.RPCFilter{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: openbook.QuoteMintOffset, Bytes: solana.Base58(quote[:])}},
	)
	if err != nil {
		return nil, fmt.Errorf("find markets: %w", err)
	}
	markets := make([]openbook.Market, 0, len(res))
	for _, keyed := range res {
		if keyed == nil || keyed.Account == nil || keyed.Account.Data == nil {
			continue
		}
		m, err := openbook.DecodeMarket(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			e.log.Warn().Str("market", keyed.Pubkey.String()).Err(err).Msg("skip market")
			continue
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// CreateMarketResult reports the market id. Result is nil when the market
// already existed.
type CreateMarketResult struct {
	MarketID solana.PublicKey
	Existing bool
	*Result
}

// CreateMarket opens an OpenBook market for base/quote with the given
// display lot and tick sizes. An existing market is returned as is.
func (e *Executor) CreateMarket(ctx context.Context, base, quote solana.PublicKey, lotSize, tickSize string) (*CreateMarketResult, error) {
	lot, err := amount.Parse(lotSize)
	if err != nil {
		return nil, types.NewValidationError("lot size", err.Error())
	}
	tick, err := amount.Parse(tickSize)
	if err != nil {
		return nil, types.NewValidationError("tick size", err.Error())
	}
	if err := types.ValidatePositive("lot size", lot); err != nil {
		return nil, err
	}
	if err := types.ValidatePositive("tick size", tick); err != nil {
		return nil, err
	}

	markets, err := e.FindMarkets(ctx, base, quote)
	if err != nil {
		return nil, err
	}
	if len(markets) > 0 {
		e.log.Info().Str("market", markets[0].ID.String()).Msg("market already exists")
		return &CreateMarketResult{MarketID: markets[0].ID, Existing: true}, nil
	}

	baseMint, err := e.chain.GetMint(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("base mint: %w", err)
	}
	quoteMint, err := e.chain.GetMint(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("quote mint: %w", err)
	}
	baseLot, quoteLot, err := openbook.LotSizes(lot, tick, baseMint.Decimals, quoteMint.Decimals)
	if err != nil {
		return nil, types.NewValidationError("lot size", err.Error())
	}

	owner := e.owner.PublicKey()
	dex := e.programs.OpenBook
	rentOf := make(map[uint64]uint64)
	rent := func(size uint64) (uint64, error) {
		if r, ok := rentOf[size]; ok {
			return r, nil
		}
		r, err := e.chain.GetRentExempt(ctx, size)
		if err != nil {
			return 0, fmt.Errorf("rent for %d bytes: %w", size, err)
		}
		rentOf[size] = r
		return r, nil
	}
	seeded := func(size uint64, program solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
		lamports, err := rent(size)
		if err != nil {
			return nil, solana.PublicKey{}, err
		}
		return openbook.CreateAccountWithSeed(owner, owner, openbook.RandomSeed(), lamports, size, program)
	}

	createMarket, market, err := seeded(openbook.MarketSize, dex)
	if err != nil {
		return nil, err
	}
	vaultSigner, nonce, err := openbook.FindVaultSigner(market, dex)
	if err != nil {
		return nil, err
	}

	createBaseVault, baseVault, err := seeded(constants.TokenAccountSize, constants.TokenProgramID)
	if err != nil {
		return nil, err
	}
	createQuoteVault, quoteVault, err := seeded(constants.TokenAccountSize, constants.TokenProgramID)
	if err != nil {
		return nil, err
	}
	vaults, err := e.Build(ctx,
		createBaseVault,
		createQuoteVault,
		spltoken.InitializeAccount(baseVault, base, vaultSigner),
		spltoken.InitializeAccount(quoteVault, quote, vaultSigner),
	)
	if err != nil {
		return nil, err
	}

	createRequests, requests, err := seeded(openbook.RequestQueueSize, dex)
	if err != nil {
		return nil, err
	}
	createEvents, events, err := seeded(openbook.EventQueueSize, dex)
	if err != nil {
		return nil, err
	}
	createBids, bids, err := seeded(openbook.OrderbookSize, dex)
	if err != nil {
		return nil, err
	}
	createAsks, asks, err := seeded(openbook.OrderbookSize, dex)
	if err != nil {
		return nil, err
	}
	initMarket, err := openbook.InitializeMarket(dex, openbook.InitializeMarketAccounts{
		Market:       market,
		RequestQueue: requests,
		EventQueue:   events,
		Bids:         bids,
		Asks:         asks,
		BaseVault:    baseVault,
		QuoteVault:   quoteVault,
		BaseMint:     base,
		QuoteMint:    quote,
	}, baseLot, quoteLot, nonce)
	if err != nil {
		return nil, err
	}
	setup, err := e.Build(ctx, createMarket, createRequests, createEvents, createBids, createAsks, initMarket)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("market", market.String()).
		Uint64("base_lot", baseLot).
		Uint64("quote_lot", quoteLot).
		Uint64("nonce", nonce).
		Msg("creating market")
	res, err := e.Execute(ctx, types.TxCreateMarket, []*solana.Transaction{vaults, setup})
	return &CreateMarketResult{MarketID: market, Result: res}, err
}
