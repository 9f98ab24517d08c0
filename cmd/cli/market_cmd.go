package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/launch"
)

func newMarketCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "OpenBook markets",
	}
	cmd.AddCommand(newMarketCreateCmd(opts), newMarketFindCmd(opts))
	return cmd
}

type pairFlags struct {
	base  string
	quote string
}

func (p *pairFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.base, "base", "", "base mint")
	cmd.Flags().StringVar(&p.quote, "quote", "", "quote mint (default WSOL)")
	_ = cmd.MarkFlagRequired("base")
}

func (p *pairFlags) resolve() (solana.PublicKey, solana.PublicKey, error) {
	base, err := parsePubkey("base", p.base)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	quote, err := quoteMint(p.quote)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return base, quote, nil
}

func newMarketCreateCmd(opts *globalOpts) *cobra.Command {
	var (
		pair     pairFlags
		lotSize  string
		tickSize string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an OpenBook market for base/quote",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			base, quote, err := pair.resolve()
			if err != nil {
				return err
			}
			ex, err := d.executor(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			res, err := ex.CreateMarket(cmd.Context(), base, quote, lotSize, tickSize)
			if err != nil {
				return err
			}
			if res.Existing {
				fmt.Fprintf(cmd.OutOrStdout(), "market exists\nmarket=%s\n", res.MarketID)
				return nil
			}
			printResult(cmd, "create market", res.Signatures, res.BundleID)
			fmt.Fprintf(cmd.OutOrStdout(), "market=%s\n", res.MarketID)
			return nil
		}),
	}
	pair.bind(cmd)
	cmd.Flags().StringVar(&lotSize, "lot-size", "1", "minimum order size in base units")
	cmd.Flags().StringVar(&tickSize, "tick-size", "0.000001", "price tick in quote units")
	return cmd
}

type marketRow struct {
	ID          string `json:"id"`
	BaseMint    string `json:"baseMint"`
	QuoteMint   string `json:"quoteMint"`
	BaseLotSize uint64 `json:"baseLotSize"`
	Pool        string `json:"pool,omitempty"`
	LpMint      string `json:"lpMint,omitempty"`
}

func newMarketFindCmd(opts *globalOpts) *cobra.Command {
	var (
		pair  pairFlags
		pools bool
	)
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find the OpenBook markets of base/quote",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			base, quote, err := pair.resolve()
			if err != nil {
				return err
			}
			ex, err := d.reader(opts)
			if err != nil {
				return err
			}
			markets, err := ex.FindMarkets(cmd.Context(), base, quote)
			if err != nil {
				return err
			}
			rows := make([]marketRow, 0, len(markets))
			for _, m := range markets {
				row := marketRow{ID: m.ID.String(), BaseMint: m.BaseMint.String(), QuoteMint: m.QuoteMint.String(), BaseLotSize: m.BaseLotSize}
				if pools {
					keys, err := ex.PoolKeys(cmd.Context(), m)
					if err != nil {
						return err
					}
					row.Pool, row.LpMint = keys.ID.String(), keys.LpMint.String()
				}
				rows = append(rows, row)
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}
	pair.bind(cmd)
	cmd.Flags().BoolVar(&pools, "pools", false, "derive the AMM pool of each market")
	return cmd
}

func newLPCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lp",
		Short: "Raydium liquidity of the owner",
	}
	cmd.AddCommand(
		newLPInfoCmd(opts),
		newLPBalanceCmd(opts),
		newLPPercentCmd(opts, "remove", "Withdraw a percentage of the owner's liquidity", (*launch.Executor).RemoveLiquidityByPercent),
		newLPPercentCmd(opts, "burn", "Burn a percentage of the owner's LP tokens", (*launch.Executor).BurnLPByPercent),
	)
	return cmd
}

func newLPInfoCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info [token]",
		Short: "Show the pool keys of token/WSOL",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			token, err := parsePubkey("token", args[0])
			if err != nil {
				return err
			}
			ex, err := d.reader(opts)
			if err != nil {
				return err
			}
			info, err := ex.PoolInfo(cmd.Context(), token)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		}),
	}
}

func newLPBalanceCmd(opts *globalOpts) *cobra.Command {
	var (
		pair  pairFlags
		owner string
	)
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the LP balance held on base/quote",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			base, quote, err := pair.resolve()
			if err != nil {
				return err
			}
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
			fmt.Fprintf(cmd.OutOrStdout(), "lp=%s\n", ex.LPBalance(cmd.Context(), base, quote, addr))
			return nil
		}),
	}
	pair.bind(cmd)
	cmd.Flags().StringVar(&owner, "address", "", "LP holder (default the owner)")
	return cmd
}

type lpPercentFn func(*launch.Executor, context.Context, solana.PublicKey, solana.PublicKey, string) (*launch.Result, error)

func newLPPercentCmd(opts *globalOpts, use, short string, fn lpPercentFn) *cobra.Command {
	var pair pairFlags
	cmd := &cobra.Command{
		Use:   use + " [percent]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			base, quote, err := pair.resolve()
			if err != nil {
				return err
			}
			ex, err := d.executor(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			res, err := fn(ex, cmd.Context(), base, quote, args[0])
			if err != nil {
				return err
			}
			printResult(cmd, res.TxType.String(), res.Signatures, res.BundleID)
			return nil
		}),
	}
	pair.bind(cmd)
	return cmd
}
