// Package launch builds and relays the owner's on-chain launch workflows:
// token creation, authority changes, OpenBook markets and Raydium liquidity.
package launch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/jito"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/rpc"
	"github.com/ninja0404/launchpad-go-sdk/pkg/txbuilder"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// Chain is the RPC surface the workflows read from. *rpc.Client implements it.
type Chain interface {
	txbuilder.Chain
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetRentExempt(ctx context.Context, size uint64) (uint64, error)
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	GetMint(ctx context.Context, mint solana.PublicKey) (spltoken.Mint, error)
	GetTokenAmount(ctx context.Context, owner, mint solana.PublicKey) (uint64, solana.PublicKey, error)
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...solanarpc.RPCFilter) (solanarpc.GetProgramAccountsResult, error)
	TokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]rpc.TokenAccount, error)
}

// Relay posts signed batches to the backend. *api.Client implements it.
type Relay interface {
	RunTransaction(ctx context.Context, userID string, txType types.TxType, txs []string) error
}

// Pinner stores token metadata documents. *metadata.Pinata implements it.
type Pinner interface {
	PinJSON(ctx context.Context, v interface{}) (string, error)
	PinFile(ctx context.Context, name string, r io.Reader) (string, error)
	GatewayURL(cid string) string
}

// MintSource produces the keypair of a new mint.
type MintSource func(ctx context.Context) (wallet.Local, error)

// Observer is told about every relayed batch.
type Observer func(txType types.TxType, mode config.RelayMode, n int)

// Options configures an Executor. Zero values pick the defaults.
type Options struct {
	Mode         config.RelayMode
	Relay        Relay
	UserID       string
	TipLamports  uint64
	Jito         *jito.Client
	Hub          *notify.Hub
	EventTimeout time.Duration
	Pinner       Pinner
	MintSource   MintSource
	Programs     constants.Programs
	Retry        *txbuilder.RetryPolicy
	Logger       *zerolog.Logger
	Observer     Observer
}

// Executor signs the owner's transactions and delivers them through the
// configured relay.
type Executor struct {
	chain    Chain
	builder  *txbuilder.Builder
	owner    wallet.Signer
	programs constants.Programs

	mode         config.RelayMode
	relay        Relay
	userID       string
	tip          uint64
	hub          *notify.Hub
	eventTimeout time.Duration
	pinner       Pinner
	mintSource   MintSource
	observe      Observer
	log          zerolog.Logger
}

// Result describes a delivered batch.
type Result struct {
	TxType     types.TxType
	Mode       config.RelayMode
	Signatures []solana.Signature
	BundleID   string
	// Event is the backend's completion notification, when one was awaited.
	Event *notify.Event
}

// NewExecutor creates an executor acting for owner.
func NewExecutor(chain Chain, owner wallet.Signer, opts Options) (*Executor, error) {
	if chain == nil {
		return nil, types.ErrNilRPC
	}
	if owner == nil {
		return nil, types.ErrNilSigner
	}
	e := &Executor{
		chain:        chain,
		owner:        owner,
		programs:     opts.Programs,
		mode:         opts.Mode,
		relay:        opts.Relay,
		userID:       opts.UserID,
		tip:          opts.TipLamports,
		hub:          opts.Hub,
		eventTimeout: opts.EventTimeout,
		pinner:       opts.Pinner,
		mintSource:   opts.MintSource,
		observe:      opts.Observer,
		log:          zerolog.Nop(),
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	if e.mode == "" {
		e.mode = config.RelayBackend
	}
	if e.tip == 0 {
		e.tip = constants.DefaultTipLamports
	}
	if e.eventTimeout <= 0 {
		e.eventTimeout = 3 * time.Minute
	}
	if e.programs.OpenBook.IsZero() || e.programs.AmmV4.IsZero() {
		e.programs = constants.ProgramsFor(false)
	}
	if e.mintSource == nil {
		e.mintSource = func(context.Context) (wallet.Local, error) { return wallet.Generate() }
	}
	if e.mode == config.RelayJito && opts.Jito == nil {
		return nil, fmt.Errorf("relay mode %s requires jito endpoints", e.mode)
	}

	e.builder = txbuilder.NewBuilder(chain, solanarpc.CommitmentConfirmed).
		WithJito(opts.Jito).
		WithLogger(e.log)
	if opts.Retry != nil {
		e.builder.WithRetryPolicy(*opts.Retry)
	}
	return e, nil
}

// Owner returns the acting wallet.
func (e *Executor) Owner() solana.PublicKey {
	return e.owner.PublicKey()
}

// Mode returns the relay mode.
func (e *Executor) Mode() config.RelayMode {
	return e.mode
}

// Programs returns the OpenBook and AMM program ids in use.
func (e *Executor) Programs() constants.Programs {
	return e.programs
}

// Build assembles a transaction paid by the owner.
func (e *Executor) Build(ctx context.Context, instructions ...solana.Instruction) (*solana.Transaction, error) {
	return e.builder.BuildTransaction(ctx, e.owner.PublicKey(), instructions...)
}

// Execute signs txs with the owner and the extra signers and delivers them.
// The backend and jito relays append a tip transaction to the batch.
func (e *Executor) Execute(ctx context.Context, txType types.TxType, txs []*solana.Transaction, signers ...wallet.Signer) (*Result, error) {
	if len(txs) == 0 {
		return nil, types.ErrNoTransactions
	}
	all := append([]wallet.Signer{e.owner}, signers...)
	if err := txbuilder.SignAll(ctx, txs, all...); err != nil {
		return nil, err
	}

	res := &Result{TxType: txType, Mode: e.mode}
	batch := txs
	if e.mode != config.RelayRPC {
		tipTx, err := e.tipTransaction(ctx)
		if err != nil {
			return nil, err
		}
		batch = append(txs[:len(txs):len(txs)], tipTx)
	}
	for _, tx := range batch {
		res.Signatures = append(res.Signatures, tx.Signatures[0])
	}

	log := e.log.With().Str("tx_type", txType.String()).Str("mode", string(e.mode)).Int("txs", len(batch)).Logger()
	log.Info().Msg("relaying batch")

	var err error
	switch e.mode {
	case config.RelayRPC:
		err = e.sendInOrder(ctx, batch)
	case config.RelayJito:
		res.BundleID, err = e.builder.SendBundleViaJito(ctx, batch)
	default:
		res.Event, err = e.relayBackend(ctx, txType, batch)
	}
	if e.observe != nil {
		e.observe(txType, e.mode, len(batch))
	}
	if err != nil {
		log.Error().Err(err).Msg("relay failed")
		return res, err
	}
	log.Info().Str("signature", res.Signatures[0].String()).Msg("batch delivered")
	return res, nil
}

func (e *Executor) tipTransaction(ctx context.Context) (*solana.Transaction, error) {
	owner := e.owner.PublicKey()
	tx, err := e.Build(ctx, jito.TipInstruction(owner, jito.DefaultTipAccount(), e.tip))
	if err != nil {
		return nil, fmt.Errorf("build tip transaction: %w", err)
	}
	if err := txbuilder.SignTransaction(ctx, tx, e.owner); err != nil {
		return nil, err
	}
	return tx, nil
}

// sendInOrder lands each transaction before sending the next, since later
// transactions of a batch may use accounts created by earlier ones.
func (e *Executor) sendInOrder(ctx context.Context, txs []*solana.Transaction) error {
	for i, tx := range txs {
		if err := e.builder.SendWithRetry(ctx, []*solana.Transaction{tx}); err != nil {
			return fmt.Errorf("transaction %d of %d: %w", i+1, len(txs), err)
		}
	}
	return nil
}

func (e *Executor) relayBackend(ctx context.Context, txType types.TxType, txs []*solana.Transaction) (*notify.Event, error) {
	if e.relay == nil {
		return nil, types.ErrNilAPI
	}
	encoded, err := txbuilder.EncodeBase64(txs)
	if err != nil {
		return nil, err
	}

	tag := txType.CompletionTag()
	var sub *notify.Subscription
	if e.hub != nil && tag != "" {
		sub = e.hub.Subscribe(tag)
		defer sub.Close()
	}
	if err := e.relay.RunTransaction(ctx, e.userID, txType, encoded); err != nil {
		return nil, fmt.Errorf("run %s: %w", txType, err)
	}
	if sub == nil {
		return nil, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.eventTimeout)
	defer cancel()
	ev, err := sub.Next(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tag, err)
	}
	return &ev, ev.Err()
}
