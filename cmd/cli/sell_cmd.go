package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
)

func newSellCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Sell project tokens and sweep SOL",
	}
	cmd.AddCommand(
		newSellExecuteCmd(opts),
		newCollectSOLCmd(opts),
		newCollectFeeCmd(opts),
	)
	return cmd
}

// poolSource looks pools up on chain when an owner is configured.
func poolSource(d *runtimeDeps, opts *globalOpts) campaign.PoolSource {
	ex, err := d.reader(opts)
	if err != nil {
		d.log.Debug().Err(err).Msg("no on-chain pool lookup")
		return nil
	}
	return ex
}

func newSellExecuteCmd(opts *globalOpts) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Sell the wallet percentages of a sell plan",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			p, err := d.project(cmd.Context(), opts.project)
			if err != nil {
				return err
			}
			plan, err := loadSellPlan(planPath)
			if err != nil {
				return err
			}
			form, transfer, err := plan.form(p)
			if err != nil {
				return err
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			seller := campaign.NewSeller(d.camp, poolSource(d, opts))
			var watch *campaign.TransferWatch
			if transfer {
				watch = seller.WatchTransfers()
				defer watch.Close()
			}
			updated, err := seller.Sell(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sell ok")
			if updated != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "status=%s\n", updated.Status)
			}
			if watch == nil {
				return nil
			}
			if _, err := watch.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("transfer after sale: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "transfer ok")
			return nil
		}),
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "sell plan YAML")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newCollectSOLCmd(opts *globalOpts) *cobra.Command {
	var (
		target  string
		wallets string
		team    string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "collect-sol",
		Short: "Sweep the SOL of project wallets to a target wallet",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			p, err := d.project(cmd.Context(), opts.project)
			if err != nil {
				return err
			}
			ws, ts := splitList(wallets), splitList(team)
			if all {
				ws, ts = addresses(p.Wallets), addresses(p.UserWallets)
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			if err := campaign.NewSeller(d.camp, nil).CollectAllSOL(cmd.Context(), target, ws, ts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collected SOL from %d wallets and %d team wallets to %s\n", len(ws), len(ts), target)
			return nil
		}),
	}
	cmd.Flags().StringVar(&target, "target", "", "wallet receiving the SOL")
	cmd.Flags().StringVar(&wallets, "wallets", "", "comma separated project wallets")
	cmd.Flags().StringVar(&team, "team-wallets", "", "comma separated team wallets")
	cmd.Flags().BoolVar(&all, "all", false, "sweep every project and team wallet")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newCollectFeeCmd(opts *globalOpts) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "collect-fee",
		Short: "Sweep the collected fees to a target wallet (admin)",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if err := d.session(cmd.Context(), ""); err != nil {
				return err
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			if err := campaign.NewSeller(d.camp, nil).CollectFee(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collected fees to %s\n", target)
			return nil
		}),
	}
	cmd.Flags().StringVar(&target, "target", "", "wallet receiving the fees")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
