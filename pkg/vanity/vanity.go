// Package vanity grinds mint keypairs whose address carries a chosen prefix
// or suffix, so a launched token can be recognized by its address.
package vanity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Options is the pattern a mint address must match.
type Options struct {
	Prefix string
	Suffix string
	// Workers defaults to the number of CPUs.
	Workers int
	// Timeout bounds the search; zero waits for ctx only.
	Timeout         time.Duration
	CaseInsensitive bool
}

// Result is a matching keypair.
type Result struct {
	Key      wallet.Local
	Attempts uint64
	Duration time.Duration
}

// Validate rejects patterns no base58 address can contain.
func (o Options) Validate() error {
	if o.Prefix == "" && o.Suffix == "" {
		return errors.New("vanity: prefix or suffix is required")
	}
	for _, part := range []string{o.Prefix, o.Suffix} {
		for _, r := range part {
			if strings.ContainsRune(alphabet, r) {
				continue
			}
			if o.CaseInsensitive && strings.ContainsRune(strings.ToLower(alphabet), r) {
				continue
			}
			return fmt.Errorf("vanity: %q is not a base58 character", r)
		}
	}
	return nil
}

func (o Options) matcher() func(addr string) bool {
	prefix, suffix := o.Prefix, o.Suffix
	if o.CaseInsensitive {
		prefix, suffix = strings.ToLower(prefix), strings.ToLower(suffix)
	}
	return func(addr string) bool {
		if o.CaseInsensitive {
			addr = strings.ToLower(addr)
		}
		return strings.HasPrefix(addr, prefix) && strings.HasSuffix(addr, suffix)
	}
}

var errFound = errors.New("found")

// Generate searches for a keypair matching opts.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	match := opts.matcher()
	var (
		attempts atomic.Uint64
		found    atomic.Pointer[solana.PrivateKey]
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for gctx.Err() == nil {
				key, err := solana.NewRandomPrivateKey()
				if err != nil {
					return err
				}
				attempts.Add(1)
				if !match(key.PublicKey().String()) {
					continue
				}
				if found.CompareAndSwap(nil, &key) {
					return errFound
				}
				return nil
			}
			return nil
		})
	}
	err := g.Wait()
	if key := found.Load(); key != nil {
		return &Result{
			Key:      wallet.NewLocalFromPrivateKey(*key),
			Attempts: attempts.Load(),
			Duration: time.Since(start),
		}, nil
	}
	if err != nil && !errors.Is(err, errFound) {
		return nil, err
	}
	return nil, fmt.Errorf("vanity: gave up after %d attempts: %w", attempts.Load(), ctx.Err())
}

// MintSource returns a generator of mint keypairs matching opts, for use as
// launch.Options.MintSource.
func MintSource(opts Options, log zerolog.Logger) func(ctx context.Context) (wallet.Local, error) {
	return func(ctx context.Context) (wallet.Local, error) {
		log.Info().
			Str("prefix", opts.Prefix).
			Str("suffix", opts.Suffix).
			Uint64("expected_attempts", EstimateDifficulty(len(opts.Prefix), len(opts.Suffix))).
			Msg("grinding mint address")
		res, err := Generate(ctx, opts)
		if err != nil {
			return wallet.Local{}, err
		}
		log.Info().
			Str("mint", res.Key.PublicKey().String()).
			Uint64("attempts", res.Attempts).
			Dur("took", res.Duration).
			Msg("mint address found")
		return res.Key, nil
	}
}

// EstimateDifficulty is the expected number of attempts for a pattern of
// prefixLen + suffixLen case-sensitive characters. It saturates at the
// largest uint64.
func EstimateDifficulty(prefixLen, suffixLen int) uint64 {
	result := uint64(1)
	for i := 0; i < prefixLen+suffixLen; i++ {
		if result > ^uint64(0)/58 {
			return ^uint64(0)
		}
		result *= 58
	}
	return result
}
