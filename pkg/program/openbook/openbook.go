// Package openbook covers the OpenBook (Serum v3 layout) market accounts:
// layout decoding, account sizing, vault signer derivation and the
// InitializeMarket instruction.
package openbook

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/serum"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"
)

// Account sizes of a market and its queues.
const (
	MarketSize       = 388
	RequestQueueSize = 63*80 + 44 + 48
	EventQueueSize   = 128*88 + 44 + 48
	OrderbookSize    = 201*80 + 44 + 48

	maxVaultSignerNonce = 25555
	dustThreshold       = 100
)

// Memcmp offsets of the mint pair inside MarketStateV3, used to find markets
// by base and quote mint.
const (
	BaseMintOffset  = 53
	QuoteMintOffset = 85
)

// Market is a decoded MarketStateV3 at address ID.
type Market struct {
	ID               solana.PublicKey
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	RequestQueue     solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	BaseLotSize      uint64
	QuoteLotSize     uint64
}

// DecodeMarket decodes market account data at address id. OpenBook keeps
// the Serum v3 market layout.
func DecodeMarket(id solana.PublicKey, data []byte) (Market, error) {
	if len(data) < MarketSize {
		return Market{}, fmt.Errorf("market account too short: %d bytes", len(data))
	}
	var raw serum.MarketV2
	if err := bin.NewBinDecoder(data).Decode(&raw); err != nil {
		return Market{}, fmt.Errorf("decode market %s: %w", id, err)
	}
	return Market{
		ID:               id,
		OwnAddress:       raw.OwnAddress,
		VaultSignerNonce: uint64(raw.VaultSignerNonce),
		BaseMint:         raw.BaseMint,
		QuoteMint:        raw.QuoteMint,
		BaseVault:        raw.BaseVault,
		QuoteVault:       raw.QuoteVault,
		RequestQueue:     raw.RequestQueue,
		EventQueue:       raw.EventQueue,
		Bids:             raw.Bids,
		Asks:             raw.Asks,
		BaseLotSize:      uint64(raw.BaseLotSize),
		QuoteLotSize:     uint64(raw.QuoteLotSize),
	}, nil
}

// VaultSigner derives the vault signer of market for nonce.
func VaultSigner(market solana.PublicKey, nonce uint64, program solana.PublicKey) (solana.PublicKey, error) {
	nb := make([]byte, 8)
	binary.LittleEndian.PutUint64(nb, nonce)
	return solana.CreateProgramAddress([][]byte{market[:], nb}, program)
}

// FindVaultSigner searches the first nonce whose vault signer is off curve.
func FindVaultSigner(market, program solana.PublicKey) (solana.PublicKey, uint64, error) {
	for nonce := uint64(0); nonce < maxVaultSignerNonce; nonce++ {
		signer, err := VaultSigner(market, nonce, program)
		if err == nil {
			return signer, nonce, nil
		}
	}
	return solana.PublicKey{}, 0, fmt.Errorf("no vault signer nonce for market %s", market)
}

// LotSizes converts display lot and tick sizes to on-chain lot sizes.
// baseLot = round(10^baseDecimals * lotSize),
// quoteLot = round(lotSize * 10^quoteDecimals * tickSize).
func LotSizes(lotSize, tickSize decimal.Decimal, baseDecimals, quoteDecimals uint8) (uint64, uint64, error) {
	baseLot := lotSize.Shift(int32(baseDecimals)).Round(0)
	quoteLot := lotSize.Mul(tickSize).Shift(int32(quoteDecimals)).Round(0)
	if !baseLot.IsPositive() {
		return 0, 0, fmt.Errorf("base lot size is zero for lot size %s", lotSize)
	}
	if !quoteLot.IsPositive() {
		return 0, 0, fmt.Errorf("quote lot size is zero for lot %s tick %s", lotSize, tickSize)
	}
	return uint64(baseLot.IntPart()), uint64(quoteLot.IntPart()), nil
}

// InitializeMarketAccounts lists the accounts of InitializeMarket.
type InitializeMarketAccounts struct {
	Market       solana.PublicKey
	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey
	Bids         solana.PublicKey
	Asks         solana.PublicKey
	BaseVault    solana.PublicKey
	QuoteVault   solana.PublicKey
	BaseMint     solana.PublicKey
	QuoteMint    solana.PublicKey
}

// InitializeMarket builds the v0 InitializeMarket instruction with no fee
// and the default dust threshold.
func InitializeMarket(program solana.PublicKey, a InitializeMarketAccounts, baseLot, quoteLot, vaultSignerNonce uint64) (solana.Instruction, error) {
	inst := serum.Instruction{
		BaseVariant: bin.BaseVariant{
			TypeID: bin.TypeIDFromUint32(0, binary.LittleEndian),
			Impl: &serum.InstructionInitializeMarket{
				BaseLotSize:        baseLot,
				QuoteLotSize:       quoteLot,
				VaultSignerNonce:   vaultSignerNonce,
				QuoteDustThreshold: dustThreshold,
			},
		},
	}
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(inst); err != nil {
		return nil, fmt.Errorf("encode initialize market: %w", err)
	}
	return solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Market, true, false),
		solana.NewAccountMeta(a.RequestQueue, true, false),
		solana.NewAccountMeta(a.EventQueue, true, false),
		solana.NewAccountMeta(a.Bids, true, false),
		solana.NewAccountMeta(a.Asks, true, false),
		solana.NewAccountMeta(a.BaseVault, true, false),
		solana.NewAccountMeta(a.QuoteVault, true, false),
		solana.NewAccountMeta(a.BaseMint, false, false),
		solana.NewAccountMeta(a.QuoteMint, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}, buf.Bytes()), nil
}

// CreateAccountWithSeed allocates space bytes at the address derived from
// base, seed and owner, funded by payer.
func CreateAccountWithSeed(payer, base solana.PublicKey, seed string, lamports, space uint64, owner solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	addr, err := solana.CreateWithSeed(base, seed, owner)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive seeded address: %w", err)
	}
	b := system.NewCreateAccountWithSeedInstructionBuilder().
		SetBase(base).
		SetSeed(seed).
		SetLamports(lamports).
		SetSpace(space).
		SetOwner(owner).
		SetFundingAccount(payer).
		SetCreatedAccount(addr)
	return b.Build(), addr, nil
}

// RandomSeed returns a 32 character seed taken from a random address, as used
// for the seeded market accounts.
func RandomSeed() string {
	return solana.NewWallet().PublicKey().String()[:32]
}
