package txbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/launchpad-go-sdk/pkg/jito"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// ConfirmationLevel represents transaction confirmation depth.
type ConfirmationLevel string

const (
	ConfirmationProcessed ConfirmationLevel = "processed"
	ConfirmationConfirmed ConfirmationLevel = "confirmed"
	ConfirmationFinalized ConfirmationLevel = "finalized"
)

// Chain is the RPC surface the builder needs. *rpc.Client implements it.
type Chain interface {
	GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
	IsTransactionLanded(ctx context.Context, sig solana.Signature, commitment solanarpc.CommitmentType) (bool, error)
}

// RetryPolicy shapes SendWithRetry.
type RetryPolicy struct {
	Rounds       int
	PollWindow   time.Duration
	PollInterval time.Duration
}

// DefaultRetryPolicy sends up to 10 rounds, polling for 1s every 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Rounds: 10, PollWindow: time.Second, PollInterval: 500 * time.Millisecond}
}

// Builder ties together RPC, fee payer, and signing.
type Builder struct {
	client        Chain
	commitment    solanarpc.CommitmentType
	skipPreflight bool
	jitoClient    *jito.Client
	retry         RetryPolicy
	log           zerolog.Logger
}

// NewBuilder constructs a builder with the provided client and commitment.
func NewBuilder(client Chain, commitment solanarpc.CommitmentType) *Builder {
	if commitment == "" {
		commitment = solanarpc.CommitmentConfirmed
	}
	return &Builder{client: client, commitment: commitment, retry: DefaultRetryPolicy(), log: zerolog.Nop()}
}

// WithSkipPreflight configures whether to skip preflight.
func (b *Builder) WithSkipPreflight(skip bool) *Builder {
	b.skipPreflight = skip
	return b
}

// WithJito configures the Jito client used for bundles. Pass nil to disable.
func (b *Builder) WithJito(jitoClient *jito.Client) *Builder {
	b.jitoClient = jitoClient
	return b
}

// WithRetryPolicy overrides the SendWithRetry schedule.
func (b *Builder) WithRetryPolicy(p RetryPolicy) *Builder {
	b.retry = p
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// HasJito returns true if Jito client is configured.
func (b *Builder) HasJito() bool {
	return b.jitoClient != nil
}

// BuildTransaction builds a transaction with fresh blockhash.
func (b *Builder) BuildTransaction(ctx context.Context, feePayer solana.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if b.client == nil {
		return nil, types.ErrNilRPC
	}
	if len(instructions) == 0 {
		return nil, types.ErrNoInstructions
	}

	latest, err := b.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	builder := solana.NewTransactionBuilder().
		SetRecentBlockHash(latest.Value.Blockhash).
		SetFeePayer(feePayer)

	for _, ix := range instructions {
		builder.AddInstruction(ix)
	}

	tx, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// SignTransaction signs using the provided signers in account-key order.
// Every required signature must have a signer.
func SignTransaction(ctx context.Context, tx *solana.Transaction, signers ...wallet.Signer) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 {
		return nil
	}
	if len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("not enough account keys for required signatures")
	}

	signerMap := make(map[string]wallet.Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		signerMap[s.PublicKey().String()] = s
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	tx.Signatures = make([]solana.Signature, required)
	for i := 0; i < required; i++ {
		pk := tx.Message.AccountKeys[i]
		signer, ok := signerMap[pk.String()]
		if !ok {
			return fmt.Errorf("%w: missing signer for %s", types.ErrSigningFailed, pk.String())
		}
		sig, err := signer.SignMessage(ctx, messageBytes)
		if err != nil {
			return fmt.Errorf("sign message for %s: %w", pk.String(), err)
		}
		tx.Signatures[i] = sig
	}
	return nil
}

// SignAll signs each transaction with the subset of signers it requires.
func SignAll(ctx context.Context, txs []*solana.Transaction, signers ...wallet.Signer) error {
	for i, tx := range txs {
		if err := SignTransaction(ctx, tx, signers...); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// EncodeBase64 serializes signed transactions for the relay endpoint.
func EncodeBase64(txs []*solana.Transaction) ([]string, error) {
	return jito.EncodeBundle(txs)
}

// Send sends a signed transaction via RPC.
func (b *Builder) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if b.client == nil {
		return solana.Signature{}, types.ErrNilRPC
	}
	opts := solanarpc.TransactionOpts{
		SkipPreflight:       b.skipPreflight,
		PreflightCommitment: b.commitment,
	}
	sig, err := b.client.SendTransaction(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// SendBundleViaJito sends multiple transactions as an atomic bundle via Jito
// and waits for the bundle to land.
func (b *Builder) SendBundleViaJito(ctx context.Context, txs []*solana.Transaction) (string, error) {
	if b.jitoClient == nil {
		return "", fmt.Errorf("jito client is not configured")
	}
	bundleID, err := b.jitoClient.SendBundle(ctx, txs)
	if err != nil {
		return "", fmt.Errorf("jito send bundle: %w", err)
	}
	if err := b.jitoClient.WaitForBundleConfirmation(ctx, bundleID); err != nil {
		return bundleID, fmt.Errorf("jito confirmation failed: %w, bundle: %s", err, bundleID)
	}
	return bundleID, nil
}

// SendWithRetry resends every unlanded transaction each round (skipping
// preflight, one node retry) and then polls at finalized commitment until all
// have landed or the rounds run out.
func (b *Builder) SendWithRetry(ctx context.Context, txs []*solana.Transaction) error {
	if b.client == nil {
		return types.ErrNilRPC
	}
	if len(txs) == 0 {
		return types.ErrNoTransactions
	}
	pending := make(map[int]*solana.Transaction, len(txs))
	for i, tx := range txs {
		if len(tx.Signatures) == 0 {
			return fmt.Errorf("transaction %d is not signed", i)
		}
		pending[i] = tx
	}

	maxRetries := uint(1)
	opts := solanarpc.TransactionOpts{SkipPreflight: true, MaxRetries: &maxRetries}
	for round := 0; round < b.retry.Rounds; round++ {
		for i, tx := range pending {
			if _, err := b.client.SendTransaction(ctx, tx, opts); err != nil {
				b.log.Debug().Int("round", round).Int("tx", i).Err(err).Msg("send failed")
			}
		}

		deadline := time.Now().Add(b.retry.PollWindow)
		for {
			for i, tx := range pending {
				landed, err := b.client.IsTransactionLanded(ctx, tx.Signatures[0], solanarpc.CommitmentFinalized)
				if err != nil {
					b.log.Debug().Int("tx", i).Err(err).Msg("landed check failed")
					continue
				}
				if landed {
					delete(pending, i)
				}
			}
			if len(pending) == 0 {
				return nil
			}
			if !time.Now().Before(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.retry.PollInterval):
			}
		}
		b.log.Info().Int("round", round+1).Int("pending", len(pending)).Msg("transactions not landed yet")
	}
	return fmt.Errorf("%w: %d of %d transactions not landed", types.ErrConfirmationTimeout, len(pending), len(txs))
}

// SendAndConfirm sends a signed transaction and waits for confirmation.
func (b *Builder) SendAndConfirm(ctx context.Context, tx *solana.Transaction, level ConfirmationLevel) (solana.Signature, error) {
	sig, err := b.Send(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err = b.WaitForConfirmation(ctx, sig, level); err != nil {
		return sig, fmt.Errorf("confirmation failed: %w, sig: %v", err, sig)
	}
	return sig, nil
}

// WaitForConfirmation polls transaction status until confirmed or ctx ends.
func (b *Builder) WaitForConfirmation(ctx context.Context, sig solana.Signature, level ConfirmationLevel) error {
	if b.client == nil {
		return types.ErrNilRPC
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resp, err := b.client.GetSignatureStatuses(ctx, sig)
			if err != nil {
				continue // retry on transient errors
			}
			if resp == nil || len(resp.Value) == 0 || resp.Value[0] == nil {
				continue // not yet visible
			}
			status := resp.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", types.ErrTransactionFailed, status.Err)
			}
			switch level {
			case ConfirmationProcessed:
				return nil
			case ConfirmationConfirmed:
				if status.ConfirmationStatus == solanarpc.ConfirmationStatusConfirmed ||
					status.ConfirmationStatus == solanarpc.ConfirmationStatusFinalized {
					return nil
				}
			case ConfirmationFinalized:
				if status.ConfirmationStatus == solanarpc.ConfirmationStatusFinalized {
					return nil
				}
			default:
				return nil
			}
		}
	}
}
