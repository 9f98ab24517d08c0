package launch

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/metadata"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/metaplex"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// CreateTokenParams describes a new SPL token.
type CreateTokenParams struct {
	Name        string
	Symbol      string
	Decimals    int
	TotalSupply string

	// URI skips pinning when set.
	URI         string
	Image       string
	Description string
	Extensions  metadata.Extensions

	// ImageFile is uploaded and used as Image when set.
	ImageFile io.Reader
	ImageName string

	// Mint is the mint keypair to use. A fresh one comes from the
	// executor's MintSource otherwise.
	Mint *wallet.Local
}

// CreateTokenResult is a launched token.
type CreateTokenResult struct {
	Mint    solana.PublicKey
	MintKey solana.PrivateKey
	URI     string
	*Result
}

// Validate checks the params without touching the network.
func (p CreateTokenParams) Validate() (supply uint64, err error) {
	if strings.TrimSpace(p.Name) == "" {
		return 0, types.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return 0, types.NewValidationError("symbol", "is required")
	}
	if err := types.ValidateDecimals(p.Decimals); err != nil {
		return 0, err
	}
	total, err := amount.Parse(p.TotalSupply)
	if err != nil {
		return 0, types.NewValidationError("total supply", err.Error())
	}
	if err := types.ValidatePositive("total supply", total); err != nil {
		return 0, err
	}
	supply, err = amount.ToBaseUnits(total, uint8(p.Decimals))
	if err != nil {
		return 0, types.NewValidationError("total supply", err.Error())
	}
	return supply, nil
}

// CreateToken mints the total supply of a new token to the owner and
// attaches Metaplex metadata.
func (e *Executor) CreateToken(ctx context.Context, p CreateTokenParams) (*CreateTokenResult, error) {
	supply, err := p.Validate()
	if err != nil {
		return nil, err
	}
	owner := e.owner.PublicKey()

	balance, err := e.chain.GetBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("read owner balance: %w", err)
	}
	if balance < constants.MinCreateTokenLamports {
		return nil, fmt.Errorf("%w: owner holds %s SOL, creating a token needs %s",
			types.ErrInsufficientBalance,
			amount.FormatBaseUnits(balance, 9),
			amount.FormatBaseUnits(constants.MinCreateTokenLamports, 9))
	}

	uri := p.URI
	if uri == "" {
		if uri, err = e.pinMetadata(ctx, p); err != nil {
			return nil, err
		}
	}

	var mintKey wallet.Local
	if p.Mint != nil {
		mintKey = *p.Mint
	} else if mintKey, err = e.mintSource(ctx); err != nil {
		return nil, fmt.Errorf("mint keypair: %w", err)
	}
	mint := mintKey.PublicKey()

	rent, err := e.chain.GetRentExempt(ctx, constants.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("mint rent: %w", err)
	}
	createATA, ata, err := spltoken.CreateATAIdempotent(owner, owner, mint)
	if err != nil {
		return nil, err
	}
	createMetadata, err := metaplex.CreateMetadataV3(mint, owner, owner, owner, metaplex.DataV2{
		Name:   p.Name,
		Symbol: p.Symbol,
		URI:    uri,
	})
	if err != nil {
		return nil, err
	}

	tx, err := e.Build(ctx,
		system.NewCreateAccountInstruction(rent, constants.MintAccountSize, constants.TokenProgramID, owner, mint).Build(),
		spltoken.InitializeMint(mint, owner, nil, uint8(p.Decimals)),
		createATA,
		spltoken.MintTo(mint, ata, owner, supply),
		createMetadata,
	)
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("mint", mint.String()).Str("symbol", p.Symbol).Str("uri", uri).Msg("creating token")
	res, err := e.Execute(ctx, types.TxCreateToken, []*solana.Transaction{tx}, mintKey)
	out := &CreateTokenResult{Mint: mint, MintKey: mintKey.PrivateKey(), URI: uri, Result: res}
	if err != nil {
		return out, err
	}
	return out, nil
}

func (e *Executor) pinMetadata(ctx context.Context, p CreateTokenParams) (string, error) {
	if e.pinner == nil {
		return "", fmt.Errorf("metadata uri: %w", metadata.ErrNoJWT)
	}
	image := p.Image
	if p.ImageFile != nil {
		name := p.ImageName
		if name == "" {
			name = p.Symbol
		}
		cid, err := e.pinner.PinFile(ctx, name, p.ImageFile)
		if err != nil {
			return "", fmt.Errorf("upload image: %w", err)
		}
		image = e.pinner.GatewayURL(cid)
	}
	doc := metadata.NewDocument(p.Name, p.Symbol, image, p.Description, p.Extensions)
	cid, err := e.pinner.PinJSON(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("pin metadata: %w", err)
	}
	return e.pinner.GatewayURL(cid), nil
}

// SetMintAuthority hands the mint authority to newAuthority, or revokes it
// when newAuthority is empty.
func (e *Executor) SetMintAuthority(ctx context.Context, mint solana.PublicKey, newAuthority string) (*Result, error) {
	return e.setAuthority(ctx, mint, newAuthority, spltoken.AuthorityMintTokens, types.TxSetMint, types.TxRevokeMint)
}

// SetFreezeAuthority hands the freeze authority to newAuthority, or revokes
// it when newAuthority is empty.
func (e *Executor) SetFreezeAuthority(ctx context.Context, mint solana.PublicKey, newAuthority string) (*Result, error) {
	return e.setAuthority(ctx, mint, newAuthority, spltoken.AuthorityFreezeAccount, types.TxSetFreeze, types.TxRevokeFreeze)
}

func (e *Executor) setAuthority(ctx context.Context, mint solana.PublicKey, newAuthority string, kind spltoken.AuthorityType, setType, revokeType types.TxType) (*Result, error) {
	if err := types.ValidatePublicKey("mint", mint); err != nil {
		return nil, err
	}
	txType := revokeType
	var next *solana.PublicKey
	if s := strings.TrimSpace(newAuthority); s != "" {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, types.NewValidationError("new authority", "invalid address")
		}
		next = &pk
		txType = setType
	}
	tx, err := e.Build(ctx, spltoken.SetAuthority(mint, e.owner.PublicKey(), kind, next))
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("mint", mint.String()).Uint8("authority", uint8(kind)).Bool("revoke", next == nil).Msg("changing authority")
	return e.Execute(ctx, txType, []*solana.Transaction{tx})
}

// BurnTokenByPercent burns percent of the owner's balance of mint.
func (e *Executor) BurnTokenByPercent(ctx context.Context, mint solana.PublicKey, percent string) (*Result, error) {
	pct, err := amount.Parse(percent)
	if err != nil {
		return nil, types.NewValidationError("percent", err.Error())
	}
	if err := types.ValidatePercent("percent", pct); err != nil {
		return nil, err
	}
	owner := e.owner.PublicKey()
	balance, ata, err := e.chain.GetTokenAmount(ctx, owner, mint)
	if err != nil {
		return nil, err
	}
	burn := amount.Percent(balance, pct)
	if burn == 0 {
		return nil, fmt.Errorf("%w: nothing to burn", types.ErrInsufficientBalance)
	}
	tx, err := e.Build(ctx, spltoken.Burn(ata, mint, owner, burn))
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("mint", mint.String()).Uint64("amount", burn).Msg("burning tokens")
	return e.Execute(ctx, types.TxBurnToken, []*solana.Transaction{tx})
}

// CloseTokenAccount closes the owner's token account of mint and returns the
// rent to the owner.
func (e *Executor) CloseTokenAccount(ctx context.Context, mint solana.PublicKey) (*Result, error) {
	owner := e.owner.PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive ata: %w", err)
	}
	tx, err := e.Build(ctx, spltoken.CloseAccount(ata, owner, owner))
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, types.TxCloseTokenAccount, []*solana.Transaction{tx})
}

// tokenListWorkers bounds the per-account lookups of TokenList.
const tokenListWorkers = 8

// TokenList lists owner's token holdings. Name and symbol are empty when the
// mint has no metadata. withMarket adds the id of the first OpenBook market
// pairing the mint with WSOL.
func (e *Executor) TokenList(ctx context.Context, owner solana.PublicKey, withMarket bool) ([]types.TokenAccountInfo, error) {
	accounts, err := e.chain.TokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]types.TokenAccountInfo, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tokenListWorkers)
	for i, acc := range accounts {
		g.Go(func() error {
			mint, err := e.chain.GetMint(gctx, acc.Mint)
			if err != nil {
				return fmt.Errorf("mint %s: %w", acc.Mint, err)
			}
			info := types.TokenAccountInfo{
				Mint:    acc.Mint.String(),
				Account: acc.Address.String(),
				Balance: wholeUnits(acc.Amount, mint.Decimals),
			}
			if md, err := e.readMetadata(gctx, acc.Mint); err == nil {
				info.Name, info.Symbol = md.Name, md.Symbol
			}
			if withMarket {
				markets, err := e.FindMarkets(gctx, acc.Mint, constants.WSOLMint)
				if err != nil {
					return err
				}
				if len(markets) > 0 {
					info.MarketID = markets[0].ID.String()
				}
			}
			out[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Executor) readMetadata(ctx context.Context, mint solana.PublicKey) (metaplex.Metadata, error) {
	addr, err := metaplex.MetadataAddress(mint)
	if err != nil {
		return metaplex.Metadata{}, err
	}
	data, err := e.chain.GetAccountData(ctx, addr)
	if err != nil {
		return metaplex.Metadata{}, err
	}
	return metaplex.DecodeMetadata(data)
}

// wholeUnits is raw / 10^decimals, truncated.
func wholeUnits(raw uint64, decimals uint8) string {
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Quo(new(big.Int).SetUint64(raw), div).String()
}
