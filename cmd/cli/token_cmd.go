package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/launch"
	"github.com/ninja0404/launchpad-go-sdk/pkg/metadata"
	"github.com/ninja0404/launchpad-go-sdk/pkg/vanity"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

func newTokenCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create and manage SPL tokens owned by the owner wallet",
	}
	cmd.AddCommand(
		newTokenCreateCmd(opts),
		newTokenListCmd(opts),
		newTokenAuthorityCmd(opts, "set-mint", "Set or revoke the mint authority", (*launch.Executor).SetMintAuthority),
		newTokenAuthorityCmd(opts, "set-freeze", "Set or revoke the freeze authority", (*launch.Executor).SetFreezeAuthority),
		newTokenBurnCmd(opts),
		newTokenCloseCmd(opts),
	)
	return cmd
}

type vanityFlags struct {
	prefix     string
	suffix     string
	ignoreCase bool
	workers    int
	timeoutSec int
}

func (v *vanityFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.prefix, "vanity-prefix", "", "grind a mint address starting with this")
	cmd.Flags().StringVar(&v.suffix, "vanity-suffix", "", "grind a mint address ending with this")
	cmd.Flags().BoolVar(&v.ignoreCase, "vanity-ignore-case", false, "match the vanity pattern case-insensitively")
	cmd.Flags().IntVar(&v.workers, "vanity-workers", 0, "grinding workers (default all CPUs)")
	cmd.Flags().IntVar(&v.timeoutSec, "vanity-timeout-sec", 300, "give up grinding after this many seconds")
}

func (v *vanityFlags) source(d *runtimeDeps) (launch.MintSource, error) {
	if v.prefix == "" && v.suffix == "" {
		return nil, nil
	}
	o := vanity.Options{
		Prefix:          v.prefix,
		Suffix:          v.suffix,
		Workers:         v.workers,
		Timeout:         time.Duration(v.timeoutSec) * time.Second,
		CaseInsensitive: v.ignoreCase,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return vanity.MintSource(o, d.log.With().Str("component", "vanity").Logger()), nil
}

func newTokenCreateCmd(opts *globalOpts) *cobra.Command {
	var (
		p         launch.CreateTokenParams
		ext       metadata.Extensions
		imagePath string
		mintKey   string
		keyOut    string
		vf        vanityFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token, mint its supply to the owner and attach metadata",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := p.Validate(); err != nil {
				return err
			}
			source, err := vf.source(d)
			if err != nil {
				return err
			}
			if mintKey != "" {
				key, err := wallet.NewLocalFromBase58(mintKey)
				if err != nil {
					return fmt.Errorf("mint key: %w", err)
				}
				p.Mint = &key
			}
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				p.ImageFile, p.ImageName = f, filepath.Base(imagePath)
			}
			p.Extensions = ext

			ex, err := d.executor(cmd.Context(), opts, source)
			if err != nil {
				return err
			}
			res, err := ex.CreateToken(cmd.Context(), p)
			if res != nil && keyOut != "" {
				if werr := os.WriteFile(keyOut, []byte(res.MintKey.String()+"\n"), 0o600); werr != nil {
					d.log.Error().Err(werr).Str("mint", res.Mint.String()).Msg("write mint key")
				}
			}
			if err != nil {
				return err
			}
			printResult(cmd, "create token", res.Signatures, res.BundleID)
			fmt.Fprintf(cmd.OutOrStdout(), "mint=%s\nuri=%s\n", res.Mint, res.URI)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "token name")
	f.StringVar(&p.Symbol, "symbol", "", "token symbol")
	f.IntVar(&p.Decimals, "decimals", 9, "token decimals")
	f.StringVar(&p.TotalSupply, "supply", "", "total supply in display units")
	f.StringVar(&p.URI, "uri", "", "metadata URI (skips pinning)")
	f.StringVar(&p.Image, "image", "", "image URL")
	f.StringVar(&imagePath, "image-file", "", "image file to pin")
	f.StringVar(&p.Description, "description", "", "token description")
	f.StringVar(&ext.Website, "website", "", "website link")
	f.StringVar(&ext.Twitter, "twitter", "", "twitter link")
	f.StringVar(&ext.Telegram, "telegram", "", "telegram link")
	f.StringVar(&ext.Discord, "discord", "", "discord link")
	f.StringVar(&mintKey, "mint-key", "", "base58 mint private key to use")
	f.StringVar(&keyOut, "mint-key-out", "", "write the mint private key to this file")
	vf.bind(cmd)
	return cmd
}

func newTokenListCmd(opts *globalOpts) *cobra.Command {
	var (
		owner      string
		withMarket bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tokens held by a wallet (default the owner)",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			ex, err := d.reader(opts)
			if err != nil {
				return err
			}
			addr := ex.Owner()
			if owner != "" {
				if addr, err = parsePubkey("address", owner); err != nil {
					return err
				}
			}
			tokens, err := ex.TokenList(cmd.Context(), addr, withMarket)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokens)
		}),
	}
	cmd.Flags().StringVar(&owner, "address", "", "wallet to list")
	cmd.Flags().BoolVar(&withMarket, "with-market", false, "look up the OpenBook market of each token")
	return cmd
}

type authorityFn func(*launch.Executor, context.Context, solana.PublicKey, string) (*launch.Result, error)

func newTokenAuthorityCmd(opts *globalOpts, use, short string, fn authorityFn) *cobra.Command {
	var (
		authority string
		revoke    bool
	)
	cmd := &cobra.Command{
		Use:   use + " [mint]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			mint, err := parsePubkey("mint", args[0])
			if err != nil {
				return err
			}
			if authority == "" && !revoke {
				return fmt.Errorf("set --authority or --revoke")
			}
			if revoke {
				authority = ""
			}
			ex, err := d.executor(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			res, err := fn(ex, cmd.Context(), mint, authority)
			if err != nil {
				return err
			}
			printResult(cmd, res.TxType.String(), res.Signatures, res.BundleID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&authority, "authority", "", "new authority address")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke the authority")
	return cmd
}

func newTokenBurnCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "burn [mint] [percent]",
		Short: "Burn a percentage of the owner's balance",
		Args:  cobra.ExactArgs(2),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			mint, err := parsePubkey("mint", args[0])
			if err != nil {
				return err
			}
			ex, err := d.executor(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			res, err := ex.BurnTokenByPercent(cmd.Context(), mint, args[1])
			if err != nil {
				return err
			}
			printResult(cmd, "burn token", res.Signatures, res.BundleID)
			return nil
		}),
	}
}

func newTokenCloseCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "close [mint]",
		Short: "Close the owner's empty token account and reclaim its rent",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			mint, err := parsePubkey("mint", args[0])
			if err != nil {
				return err
			}
			ex, err := d.executor(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			res, err := ex.CloseTokenAccount(cmd.Context(), mint)
			if err != nil {
				return err
			}
			printResult(cmd, "close token account", res.Signatures, res.BundleID)
			return nil
		}),
	}
}
