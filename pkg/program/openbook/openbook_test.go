package openbook

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/serum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
)

func TestQueueSizes(t *testing.T) {
	assert.Equal(t, 5132, RequestQueueSize)
	assert.Equal(t, 11356, EventQueueSize)
	assert.Equal(t, 16172, OrderbookSize)
}

func TestDecodeMarket(t *testing.T) {
	id := solana.NewWallet().PublicKey()
	base, quote := solana.NewWallet().PublicKey(), constants.WSOLMint
	bids := solana.NewWallet().PublicKey()
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBinEncoder(buf).Encode(serum.MarketV2{
		AccountFlags:     serum.AccountFlagInitialized | serum.AccountFlagMarket,
		OwnAddress:       id,
		VaultSignerNonce: 3,
		BaseMint:         base,
		QuoteMint:        quote,
		Bids:             bids,
		BaseLotSize:      1000,
		QuoteLotSize:     10,
	}))
	raw := buf.Bytes()
	require.Len(t, raw, MarketSize)
	assert.Equal(t, base[:], raw[BaseMintOffset:BaseMintOffset+32])
	assert.Equal(t, quote[:], raw[QuoteMintOffset:QuoteMintOffset+32])

	m, err := DecodeMarket(id, raw)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, id, m.OwnAddress)
	assert.Equal(t, uint64(3), m.VaultSignerNonce)
	assert.Equal(t, base, m.BaseMint)
	assert.Equal(t, quote, m.QuoteMint)
	assert.Equal(t, bids, m.Bids)
	assert.Equal(t, uint64(1000), m.BaseLotSize)
	assert.Equal(t, uint64(10), m.QuoteLotSize)

	_, err = DecodeMarket(id, raw[:200])
	assert.Error(t, err)
}

func TestFindVaultSigner(t *testing.T) {
	market := solana.NewWallet().PublicKey()
	signer, nonce, err := FindVaultSigner(market, constants.OpenBookProgramID)
	require.NoError(t, err)
	again, err := VaultSigner(market, nonce, constants.OpenBookProgramID)
	require.NoError(t, err)
	assert.Equal(t, signer, again)
}

func TestLotSizes(t *testing.T) {
	baseLot, quoteLot, err := LotSizes(decimal.NewFromInt(1), decimal.RequireFromString("0.000001"), 6, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), baseLot)
	assert.Equal(t, uint64(1000), quoteLot)

	_, _, err = LotSizes(decimal.NewFromInt(1), decimal.RequireFromString("0.0000000001"), 6, 9)
	assert.Error(t, err)
	_, _, err = LotSizes(decimal.RequireFromString("0.0000001"), decimal.NewFromInt(1), 6, 9)
	assert.Error(t, err)
}

func TestInitializeMarketData(t *testing.T) {
	accs := InitializeMarketAccounts{
		Market: solana.NewWallet().PublicKey(), BaseMint: solana.NewWallet().PublicKey(), QuoteMint: constants.WSOLMint,
	}
	ix, err := InitializeMarket(constants.OpenBookProgramID, accs, 1_000_000, 1000, 7)
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 39)
	assert.Equal(t, byte(0), data[0])
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[1:5]))
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[5:13]))
	assert.Equal(t, uint64(1000), binary.LittleEndian.Uint64(data[13:21]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[21:23]))
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[23:31]))
	assert.Equal(t, uint64(100), binary.LittleEndian.Uint64(data[31:39]))
	assert.Len(t, ix.Accounts(), 10)
}

func TestCreateAccountWithSeed(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	seed := RandomSeed()
	require.Len(t, seed, 32)

	ix, addr, err := CreateAccountWithSeed(owner, owner, seed, 5000, MarketSize, constants.OpenBookProgramID)
	require.NoError(t, err)
	want, err := solana.CreateWithSeed(owner, seed, constants.OpenBookProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, addr)
	assert.Len(t, ix.Accounts(), 2)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, owner[:], data[4:36])
	assert.Equal(t, uint64(32), binary.LittleEndian.Uint64(data[36:44]))
	assert.Equal(t, seed, string(data[44:76]))
	assert.Equal(t, uint64(5000), binary.LittleEndian.Uint64(data[76:84]))
	assert.Equal(t, uint64(MarketSize), binary.LittleEndian.Uint64(data[84:92]))
	assert.Equal(t, constants.OpenBookProgramID[:], data[92:124])
}
