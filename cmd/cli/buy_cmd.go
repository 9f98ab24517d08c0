package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
)

func newBuyCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Simulate, disperse and execute the launch bundle of a project",
	}
	cmd.AddCommand(
		newBuyPlanCmd(opts),
		newBuySimulateCmd(opts),
		newBuyDisperseCmd(opts),
		newBuyExecuteCmd(opts),
	)
	return cmd
}

// buyer restores the saved simulation of the selected project.
func buyer(cmd *cobra.Command, d *runtimeDeps, opts *globalOpts, planPath string) (*campaign.Buyer, campaign.BuyForm, error) {
	p, err := d.project(cmd.Context(), opts.project)
	if err != nil {
		return nil, campaign.BuyForm{}, err
	}
	plan, err := loadPlan(planPath)
	if err != nil {
		return nil, campaign.BuyForm{}, err
	}
	form, err := plan.form(p)
	if err != nil {
		return nil, campaign.BuyForm{}, err
	}
	b := campaign.NewBuyer(d.camp)
	sim, err := loadSimulation(d, p.ID)
	if err != nil {
		return nil, campaign.BuyForm{}, err
	}
	b.SetSimulation(sim)
	return b, form, nil
}

func newBuyPlanCmd(opts *globalOpts) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Write a buy plan prefilled from the saved project",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			p, err := d.project(cmd.Context(), opts.project)
			if err != nil {
				return err
			}
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s exists", out)
			}
			if err := writePlan(out, planFromForm(p, campaign.NewBuyForm(p))); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d wallets)\n", out, len(p.Wallets))
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "plan.yaml", "plan file to create")
	return cmd
}

func newBuySimulateCmd(opts *globalOpts) *cobra.Command {
	var (
		planPath  string
		randomMin string
		randomMax string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate the buy plan and keep the result for disperse and execute",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			b, form, err := buyer(cmd, d, opts, planPath)
			if err != nil {
				return err
			}
			p, err := d.store.CurrentProject()
			if err != nil {
				return err
			}
			if randomMin != "" || randomMax != "" {
				if form, err = campaign.AssignRandomAmounts(form, randomMin, randomMax, nil); err != nil {
					return err
				}
				if err := writePlan(planPath, planFromForm(p, form)); err != nil {
					return err
				}
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			sim, err := b.Simulate(cmd.Context(), form)
			if saveErr := saveSimulation(d, p.ID, sim); saveErr != nil {
				return saveErr
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sim)
		}),
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "buy plan YAML")
	cmd.Flags().StringVar(&randomMin, "random-min", "", "assign checked wallets a random token amount from this minimum")
	cmd.Flags().StringVar(&randomMax, "random-max", "", "maximum of the random token amount")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newBuyDisperseCmd(opts *globalOpts) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "disperse",
		Short: "Fund the simulated wallets from the zombie wallet",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			b, form, err := buyer(cmd, d, opts, planPath)
			if err != nil {
				return err
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			if err := b.Disperse(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "disperse ok")
			return nil
		}),
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "buy plan YAML")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newBuyExecuteCmd(opts *globalOpts) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Enable the pool and buy per the simulation",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			b, form, err := buyer(cmd, d, opts, planPath)
			if err != nil {
				return err
			}
			p, err := d.store.CurrentProject()
			if err != nil {
				return err
			}
			if err := d.listen(cmd.Context()); err != nil {
				return err
			}
			updated, err := b.Buy(cmd.Context(), form)
			if b.Simulation() == nil {
				if saveErr := saveSimulation(d, p.ID, nil); saveErr != nil {
					d.log.Warn().Err(saveErr).Msg("clear simulation")
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "buy ok")
			if updated != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "status=%s\n", updated.Status)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "buy plan YAML")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
