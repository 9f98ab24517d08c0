package launch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/serum"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/jito"
	"github.com/ninja0404/launchpad-go-sdk/pkg/metadata"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/openbook"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/rpc"
	"github.com/ninja0404/launchpad-go-sdk/pkg/txbuilder"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

type account struct {
	owner solana.PublicKey
	data  []byte
}

// memChain is an in-memory ledger: accounts are set up by the test and sent
// transactions land immediately.
type memChain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]account
	balance  uint64
	sent     []*solana.Transaction
}

func newMemChain() *memChain {
	c := &memChain{accounts: map[solana.PublicKey]account{}, balance: solana.LAMPORTS_PER_SOL}
	c.putMint(constants.WSOLMint, 9)
	return c
}

func (c *memChain) put(addr, owner solana.PublicKey, data []byte) {
	c.mu.Lock()
	c.accounts[addr] = account{owner: owner, data: data}
	c.mu.Unlock()
}

func (c *memChain) putMint(mint solana.PublicKey, decimals uint8) {
	raw := make([]byte, constants.MintAccountSize)
	raw[44] = decimals
	raw[45] = 1
	c.put(mint, constants.TokenProgramID, raw)
}

func (c *memChain) putTokenAccount(t *testing.T, owner, mint solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	raw := make([]byte, constants.TokenAccountSize)
	copy(raw[0:32], mint[:])
	copy(raw[32:64], owner[:])
	binary.LittleEndian.PutUint64(raw[64:72], amount)
	c.put(ata, constants.TokenProgramID, raw)
	return ata
}

func (c *memChain) putMarket(t *testing.T, program, base, quote solana.PublicKey) solana.PublicKey {
	t.Helper()
	id := solana.NewWallet().PublicKey()
	_, nonce, err := openbook.FindVaultSigner(id, program)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBinEncoder(buf).Encode(serum.MarketV2{
		AccountFlags:     serum.AccountFlagInitialized | serum.AccountFlagMarket,
		OwnAddress:       id,
		VaultSignerNonce: bin.Uint64(nonce),
		BaseMint:         base,
		QuoteMint:        quote,
	}))
	c.put(id, program, buf.Bytes())
	return id
}

func (c *memChain) sentTxs() []*solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*solana.Transaction(nil), c.sent...)
}

func (c *memChain) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	return &solanarpc.GetLatestBlockhashResult{Value: &solanarpc.LatestBlockhashResult{Blockhash: solana.Hash{7}}}, nil
}

func (c *memChain) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, tx)
	return tx.Signatures[0], nil
}

func (c *memChain) GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	return &solanarpc.GetSignatureStatusesResult{}, nil
}

func (c *memChain) IsTransactionLanded(ctx context.Context, sig solana.Signature, commitment solanarpc.CommitmentType) (bool, error) {
	return true, nil
}

func (c *memChain) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance, nil
}

func (c *memChain) GetRentExempt(ctx context.Context, size uint64) (uint64, error) {
	return (size + 128) * 6960, nil
}

func (c *memChain) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.accounts[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrAccountNotFound, addr)
	}
	return acc.data, nil
}

func (c *memChain) GetMint(ctx context.Context, mint solana.PublicKey) (spltoken.Mint, error) {
	data, err := c.GetAccountData(ctx, mint)
	if err != nil {
		return spltoken.Mint{}, fmt.Errorf("%w: %v", types.ErrMintNotFound, err)
	}
	return spltoken.DecodeMint(data)
}

func (c *memChain) GetTokenAmount(ctx context.Context, owner, mint solana.PublicKey) (uint64, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	data, err := c.GetAccountData(ctx, ata)
	if err != nil {
		return 0, ata, fmt.Errorf("%w: %s", types.ErrATANotFound, ata)
	}
	acc, err := spltoken.DecodeAccount(data)
	return acc.Amount, ata, err
}

func (c *memChain) GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...solanarpc.RPCFilter) (solanarpc.GetProgramAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out solanarpc.GetProgramAccountsResult
	for addr, acc := range c.accounts {
		if !acc.owner.Equals(program) || !matches(acc.data, filters) {
			continue
		}
		out = append(out, &solanarpc.KeyedAccount{
			Pubkey:  addr,
			Account: &solanarpc.Account{Owner: program, Data: solanarpc.DataBytesOrJSONFromBytes(acc.data)},
		})
	}
	return out, nil
}

func matches(data []byte, filters []solanarpc.RPCFilter) bool {
	for _, f := range filters {
		if f.DataSize != 0 && uint64(len(data)) != f.DataSize {
			return false
		}
		if m := f.Memcmp; m != nil {
			end := int(m.Offset) + len(m.Bytes)
			if end > len(data) || !bytes.Equal(data[m.Offset:end], m.Bytes) {
				return false
			}
		}
	}
	return true
}

func (c *memChain) TokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]rpc.TokenAccount, error) {
	res, err := c.GetProgramAccounts(ctx, constants.TokenProgramID,
		solanarpc.RPCFilter{DataSize: constants.TokenAccountSize},
		solanarpc.RPCFilter{Memcmp: &solanarpc.RPCFilterMemcmp{Offset: 32, Bytes: solana.Base58(owner[:])}})
	if err != nil {
		return nil, err
	}
	var out []rpc.TokenAccount
	for _, keyed := range res {
		acc, err := spltoken.DecodeAccount(keyed.Account.Data.GetBinary())
		if err != nil {
			return nil, err
		}
		out = append(out, rpc.TokenAccount{Address: keyed.Pubkey, Account: acc})
	}
	return out, nil
}

type relayCall struct {
	userID string
	txType types.TxType
	txs    []string
}

type fakeRelay struct {
	mu    sync.Mutex
	calls []relayCall
	hub   *notify.Hub
	reply *notify.Event
}

func (r *fakeRelay) RunTransaction(ctx context.Context, userID string, txType types.TxType, txs []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, relayCall{userID: userID, txType: txType, txs: txs})
	r.mu.Unlock()
	if r.hub != nil && r.reply != nil {
		r.hub.Publish(*r.reply)
	}
	return nil
}

type fakePinner struct {
	docs  []interface{}
	files []string
}

func (p *fakePinner) PinJSON(ctx context.Context, v interface{}) (string, error) {
	p.docs = append(p.docs, v)
	return "QmDoc", nil
}

func (p *fakePinner) PinFile(ctx context.Context, name string, r io.Reader) (string, error) {
	p.files = append(p.files, name)
	return "QmImage", nil
}

func (p *fakePinner) GatewayURL(cid string) string {
	return metadata.DefaultGateway + cid
}

func fastRetry() *txbuilder.RetryPolicy {
	return &txbuilder.RetryPolicy{Rounds: 2, PollWindow: time.Millisecond, PollInterval: time.Millisecond}
}

func newRPCExecutor(t *testing.T, chain *memChain, owner wallet.Signer) *Executor {
	t.Helper()
	e, err := NewExecutor(chain, owner, Options{Mode: config.RelayRPC, Retry: fastRetry(), Pinner: &fakePinner{}})
	require.NoError(t, err)
	return e
}

func programOf(tx *solana.Transaction, i int) solana.PublicKey {
	return tx.Message.AccountKeys[tx.Message.Instructions[i].ProgramIDIndex]
}

func decodeTx(t *testing.T, b64 string) *solana.Transaction {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return tx
}

func TestCreateTokenBuildsSingleTransaction(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	pinner := &fakePinner{}
	e, err := NewExecutor(chain, owner, Options{Mode: config.RelayRPC, Retry: fastRetry(), Pinner: pinner})
	require.NoError(t, err)

	res, err := e.CreateToken(context.Background(), CreateTokenParams{
		Name:        "Launch",
		Symbol:      "LCH",
		Decimals:    6,
		TotalSupply: "1000000",
		Description: "test token",
		Extensions:  metadata.Extensions{Website: "https://launch.example"},
		ImageFile:   bytes.NewReader([]byte("png")),
		ImageName:   "logo.png",
	})
	require.NoError(t, err)
	assert.Equal(t, metadata.DefaultGateway+"QmDoc", res.URI)
	assert.Equal(t, res.Mint, res.MintKey.PublicKey())
	assert.Equal(t, []string{"logo.png"}, pinner.files)
	require.Len(t, pinner.docs, 1)
	doc := pinner.docs[0].(metadata.Document)
	assert.Equal(t, metadata.DefaultGateway+"QmImage", doc.Image)
	assert.Equal(t, "https://launch.example", doc.Extensions.Website)

	sent := chain.sentTxs()
	require.Len(t, sent, 1)
	tx := sent[0]
	require.Len(t, tx.Message.Instructions, 5)
	assert.Equal(t, constants.SystemProgramID, programOf(tx, 0))
	assert.Equal(t, constants.TokenProgramID, programOf(tx, 1))
	assert.Equal(t, constants.AssociatedTokenProgramID, programOf(tx, 2))
	assert.Equal(t, constants.TokenProgramID, programOf(tx, 3))
	assert.Equal(t, constants.MetadataProgramID, programOf(tx, 4))
	assert.Len(t, tx.Signatures, 2)

	mintTo := tx.Message.Instructions[3].Data
	assert.Equal(t, uint64(1_000_000_000_000), binary.LittleEndian.Uint64(mintTo[1:9]))
}

func TestCreateTokenChecks(t *testing.T) {
	owner, _ := wallet.Generate()
	cases := []struct {
		name   string
		params CreateTokenParams
	}{
		{"missing name", CreateTokenParams{Symbol: "X", Decimals: 6, TotalSupply: "1"}},
		{"missing symbol", CreateTokenParams{Name: "X", Decimals: 6, TotalSupply: "1"}},
		{"decimals", CreateTokenParams{Name: "X", Symbol: "X", Decimals: 10, TotalSupply: "1"}},
		{"supply", CreateTokenParams{Name: "X", Symbol: "X", Decimals: 6, TotalSupply: "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newRPCExecutor(t, newMemChain(), owner)
			_, err := e.CreateToken(context.Background(), tc.params)
			var verr types.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}

	chain := newMemChain()
	chain.balance = 10_000_000
	e := newRPCExecutor(t, chain, owner)
	_, err := e.CreateToken(context.Background(), CreateTokenParams{Name: "X", Symbol: "X", Decimals: 6, TotalSupply: "1", URI: "https://x"})
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Empty(t, chain.sentTxs())
}

func TestBackendRelayAppendsTipAndWaits(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	hub := notify.NewHub(4)
	relay := &fakeRelay{hub: hub, reply: &notify.Event{Tag: notify.TagRevokeMint, Success: true}}
	var observed []int
	e, err := NewExecutor(chain, owner, Options{
		Relay:        relay,
		UserID:       "u1",
		Hub:          hub,
		EventTimeout: time.Second,
		Observer:     func(_ types.TxType, _ config.RelayMode, n int) { observed = append(observed, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, config.RelayBackend, e.Mode())

	mint := solana.NewWallet().PublicKey()
	res, err := e.SetMintAuthority(context.Background(), mint, "")
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	assert.Equal(t, notify.TagRevokeMint, res.Event.Tag)
	assert.Equal(t, []int{2}, observed)

	require.Len(t, relay.calls, 1)
	call := relay.calls[0]
	assert.Equal(t, "u1", call.userID)
	assert.Equal(t, types.TxRevokeMint, call.txType)
	require.Len(t, call.txs, 2)

	tip := decodeTx(t, call.txs[1])
	require.Len(t, tip.Message.Instructions, 1)
	assert.Equal(t, constants.SystemProgramID, programOf(tip, 0))
	ix := tip.Message.Instructions[0]
	assert.Equal(t, jito.DefaultTipAccount(), tip.Message.AccountKeys[ix.Accounts[1]])
	assert.Equal(t, uint64(constants.DefaultTipLamports), binary.LittleEndian.Uint64(ix.Data[4:12]))
	assert.Empty(t, chain.sentTxs())

	relay.reply = &notify.Event{Tag: notify.TagSetMint, Error: "mint authority mismatch"}
	_, err = e.SetMintAuthority(context.Background(), mint, solana.NewWallet().PublicKey().String())
	var evErr *types.EventError
	require.ErrorAs(t, err, &evErr)
	assert.Equal(t, "mint authority mismatch", evErr.Message)
	assert.Equal(t, types.TxSetMint, relay.calls[1].txType)
}

func TestBackendRelayWithoutClient(t *testing.T) {
	owner, _ := wallet.Generate()
	e, err := NewExecutor(newMemChain(), owner, Options{})
	require.NoError(t, err)
	_, err = e.SetFreezeAuthority(context.Background(), solana.NewWallet().PublicKey(), "")
	assert.ErrorIs(t, err, types.ErrNilAPI)

	_, err = NewExecutor(newMemChain(), owner, Options{Mode: config.RelayJito})
	assert.Error(t, err)
}

func TestFreezeAuthorityTxTypes(t *testing.T) {
	owner, _ := wallet.Generate()
	relay := &fakeRelay{}
	e, err := NewExecutor(newMemChain(), owner, Options{Relay: relay})
	require.NoError(t, err)
	mint := solana.NewWallet().PublicKey()

	_, err = e.SetFreezeAuthority(context.Background(), mint, "")
	require.NoError(t, err)
	_, err = e.SetFreezeAuthority(context.Background(), mint, owner.PublicKey().String())
	require.NoError(t, err)
	_, err = e.SetFreezeAuthority(context.Background(), mint, "not-a-key")
	var verr types.ValidationError
	assert.True(t, errors.As(err, &verr))

	require.Len(t, relay.calls, 2)
	assert.Equal(t, types.TxRevokeFreeze, relay.calls[0].txType)
	assert.Equal(t, types.TxSetFreeze, relay.calls[1].txType)
}

func TestBurnTokenByPercentFloors(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	mint := solana.NewWallet().PublicKey()
	chain.putMint(mint, 6)
	ata := chain.putTokenAccount(t, owner.PublicKey(), mint, 1001)
	e := newRPCExecutor(t, chain, owner)

	_, err := e.BurnTokenByPercent(context.Background(), mint, "0")
	var verr types.ValidationError
	assert.True(t, errors.As(err, &verr))
	_, err = e.BurnTokenByPercent(context.Background(), mint, "100.5")
	assert.True(t, errors.As(err, &verr))

	_, err = e.BurnTokenByPercent(context.Background(), mint, "50")
	require.NoError(t, err)
	sent := chain.sentTxs()
	require.Len(t, sent, 1)
	ix := sent[0].Message.Instructions[0]
	assert.Equal(t, byte(8), ix.Data[0])
	assert.Equal(t, uint64(500), binary.LittleEndian.Uint64(ix.Data[1:9]))
	assert.Equal(t, ata, sent[0].Message.AccountKeys[ix.Accounts[0]])
}

func TestCloseTokenAccount(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	mint := solana.NewWallet().PublicKey()
	e := newRPCExecutor(t, chain, owner)

	res, err := e.CloseTokenAccount(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, types.TxCloseTokenAccount, res.TxType)
	require.Len(t, chain.sentTxs(), 1)
	assert.Equal(t, byte(9), chain.sentTxs()[0].Message.Instructions[0].Data[0])
}

func TestTokenList(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	mint := solana.NewWallet().PublicKey()
	chain.putMint(mint, 6)
	ata := chain.putTokenAccount(t, owner.PublicKey(), mint, 2_500_000)
	e := newRPCExecutor(t, chain, owner)
	market := chain.putMarket(t, e.Programs().OpenBook, mint, constants.WSOLMint)

	list, err := e.TokenList(context.Background(), owner.PublicKey(), true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.TokenAccountInfo{
		Mint:     mint.String(),
		Account:  ata.String(),
		Balance:  "2",
		MarketID: market.String(),
	}, list[0])
}

func TestCreateMarket(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	base := solana.NewWallet().PublicKey()
	chain.putMint(base, 6)
	e := newRPCExecutor(t, chain, owner)

	_, err := e.CreateMarket(context.Background(), base, constants.WSOLMint, "0", "0.1")
	var verr types.ValidationError
	assert.True(t, errors.As(err, &verr))

	res, err := e.CreateMarket(context.Background(), base, constants.WSOLMint, "1", "0.000001")
	require.NoError(t, err)
	assert.False(t, res.Existing)
	assert.Equal(t, types.TxCreateMarket, res.TxType)

	sent := chain.sentTxs()
	require.Len(t, sent, 2)
	require.Len(t, sent[0].Message.Instructions, 4)
	require.Len(t, sent[1].Message.Instructions, 6)
	assert.Equal(t, e.Programs().OpenBook, programOf(sent[1], 5))
	assert.Contains(t, sent[1].Message.AccountKeys, res.MarketID)

	initData := sent[1].Message.Instructions[5].Data
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(initData[5:13]))
	assert.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(initData[13:21]))
}

func TestCreateMarketReturnsExisting(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	base := solana.NewWallet().PublicKey()
	chain.putMint(base, 6)
	e := newRPCExecutor(t, chain, owner)
	id := chain.putMarket(t, e.Programs().OpenBook, base, constants.WSOLMint)

	res, err := e.CreateMarket(context.Background(), base, constants.WSOLMint, "1", "0.01")
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Equal(t, id, res.MarketID)
	assert.Nil(t, res.Result)
	assert.Empty(t, chain.sentTxs())
}

func TestPoolInfoAndLPBalance(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	base := solana.NewWallet().PublicKey()
	chain.putMint(base, 6)
	e := newRPCExecutor(t, chain, owner)

	_, err := e.PoolInfo(context.Background(), base)
	assert.ErrorIs(t, err, types.ErrMarketNotFound)
	assert.Equal(t, "0", e.LPBalance(context.Background(), base, constants.WSOLMint, owner.PublicKey()))

	market := chain.putMarket(t, e.Programs().OpenBook, base, constants.WSOLMint)
	info, err := e.PoolInfo(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, market.String(), info.MarketID)
	assert.Equal(t, 6, info.BaseDecimals)
	assert.Equal(t, 9, info.QuoteDecimals)

	assert.Equal(t, "0", e.LPBalance(context.Background(), base, constants.WSOLMint, owner.PublicKey()))
	lpMint := solana.MustPublicKeyFromBase58(info.LpMint)
	chain.putTokenAccount(t, owner.PublicKey(), lpMint, 7_900_000)
	assert.Equal(t, "7", e.LPBalance(context.Background(), base, constants.WSOLMint, owner.PublicKey()))
}

func TestRemoveLiquidityAndBurnLP(t *testing.T) {
	chain := newMemChain()
	owner, _ := wallet.Generate()
	base := solana.NewWallet().PublicKey()
	chain.putMint(base, 6)
	e := newRPCExecutor(t, chain, owner)
	chain.putMarket(t, e.Programs().OpenBook, base, constants.WSOLMint)
	info, err := e.PoolInfo(context.Background(), base)
	require.NoError(t, err)
	lpAccount := chain.putTokenAccount(t, owner.PublicKey(), solana.MustPublicKeyFromBase58(info.LpMint), 1000)

	res, err := e.RemoveLiquidityByPercent(context.Background(), base, constants.WSOLMint, "25")
	require.NoError(t, err)
	assert.Equal(t, types.TxRemoveLP, res.TxType)
	tx := chain.sentTxs()[0]
	require.Len(t, tx.Message.Instructions, 4)
	assert.Equal(t, e.Programs().AmmV4, programOf(tx, 2))
	withdraw := tx.Message.Instructions[2].Data
	assert.Equal(t, byte(4), withdraw[0])
	assert.Equal(t, uint64(250), binary.LittleEndian.Uint64(withdraw[1:9]))
	assert.Equal(t, byte(9), tx.Message.Instructions[3].Data[0])

	_, err = e.BurnLPByPercent(context.Background(), base, constants.WSOLMint, "100")
	require.NoError(t, err)
	burn := chain.sentTxs()[1]
	ix := burn.Message.Instructions[0]
	assert.Equal(t, lpAccount, burn.Message.AccountKeys[ix.Accounts[0]])
	assert.Equal(t, uint64(1000), binary.LittleEndian.Uint64(ix.Data[1:9]))
}
