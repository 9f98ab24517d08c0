package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
	"github.com/ninja0404/launchpad-go-sdk/pkg/state"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

func newProjectCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, inspect and maintain projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(opts),
		newProjectListCmd(opts),
		newProjectShowCmd(opts),
		newProjectStatusCmd(opts),
		newProjectIDCmd(opts, "activate", "Activate a project (admin)", func(cmd *cobra.Command, d *runtimeDeps, id string) ([]types.Project, error) {
			return d.camp.ActivateProject(cmd.Context(), id)
		}),
		newProjectIDCmd(opts, "delete", "Delete a project", func(cmd *cobra.Command, d *runtimeDeps, id string) ([]types.Project, error) {
			return d.camp.DeleteProject(cmd.Context(), id)
		}),
		newProjectSaveCmd(opts),
		newProjectWalletsCmd(opts),
		newProjectDownloadCmd(opts),
		newProjectImportWalletCmd(opts),
	)
	return cmd
}

func newProjectCreateCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project and wait for its payment",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.user(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			created, err := d.camp.CreateProject(cmd.Context(), args[0], func(p campaign.Progress) {
				switch p.Step {
				case campaign.StepCreated:
					fmt.Fprintf(out, "project=%s\ndeposit_wallet=%s\nexpires=%s\n", p.ProjectID, p.DepositWallet, formatMillis(p.ExpireTime))
				case campaign.StepWaiting:
					left := time.Until(time.UnixMilli(p.ExpireTime)).Truncate(time.Second)
					fmt.Fprintf(cmd.ErrOrStderr(), "waiting for payment, %s left\n", left)
				case campaign.StepActivated:
					fmt.Fprintln(out, "status=activated")
				case campaign.StepFailed:
					fmt.Fprintf(out, "status=failed (%v)\n", p.Err)
				}
			})
			if err != nil {
				return err
			}
			d.log.Debug().Str("project", created.ProjectID).Msg("create finished")
			return nil
		}),
	}
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

type projectRow struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Status  types.ProjectStatus `json:"status"`
	View    state.View          `json:"view"`
	Token   string              `json:"token,omitempty"`
	Wallets int                 `json:"wallets"`
	Team    int                 `json:"teamWallets"`
	Bots    int                 `json:"botWallets"`
}

func newProjectListCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if err := d.session(cmd.Context(), ""); err != nil {
				return err
			}
			var rows []projectRow
			for _, p := range d.store.Projects() {
				rows = append(rows, projectRow{
					ID:      p.ID,
					Name:    p.Name,
					Status:  p.Status,
					View:    state.ProjectView(p),
					Token:   p.TokenAddress(),
					Wallets: len(p.Wallets),
					Team:    len(p.UserWallets),
					Bots:    len(p.BotWallets),
				})
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}
}

func addresses(ws []types.Wallet) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Address
	}
	return out
}

func newProjectShowCmd(opts *globalOpts) *cobra.Command {
	var balances bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the selected project, optionally with token balances",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			p, err := d.project(cmd.Context(), opts.project)
			if err != nil {
				return err
			}
			out := struct {
				types.Project
				View         state.View `json:"view"`
				Balances     []string   `json:"balances,omitempty"`
				TeamBalances []string   `json:"teamBalances,omitempty"`
			}{Project: p, View: state.ProjectView(p)}
			if balances && p.TokenAddress() != "" {
				out.Balances, out.TeamBalances = d.store.RefreshBalances(cmd.Context(), p.TokenAddress(), addresses(p.Wallets), addresses(p.UserWallets))
			}
			return printJSON(cmd.OutOrStdout(), out)
		}),
	}
	cmd.Flags().BoolVar(&balances, "balances", false, "read the token balance of every wallet")
	return cmd
}

func newProjectStatusCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status [project-id]",
		Short: "Check the payment status of a project",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			st, err := d.api.CheckStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "activated=%t\nexpired=%t\nexpires=%s\n", st.Activated, st.Expired, formatMillis(st.ExpireTime))
			return nil
		}),
	}
}

func newProjectIDCmd(opts *globalOpts, use, short string, fn func(*cobra.Command, *runtimeDeps, string) ([]types.Project, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [project-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if err := d.session(cmd.Context(), ""); err != nil {
				return err
			}
			projects, err := fn(cmd, d, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s ok, %d projects\n", use, args[0], len(projects))
			return nil
		}),
	}
}

func newProjectSaveCmd(opts *globalOpts) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save token, zombie wallet and wallet amounts from a buy plan",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			p, err := d.project(cmd.Context(), opts.project)
			if err != nil {
				return err
			}
			plan, err := loadPlan(planPath)
			if err != nil {
				return err
			}
			form, err := plan.form(p)
			if err != nil {
				return err
			}
			saved, err := d.camp.SaveProject(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved project %s (%d wallets)\n", saved.ID, len(saved.Wallets))
			return nil
		}),
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "buy plan YAML")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newProjectWalletsCmd(opts *globalOpts) *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "wallets [count]",
		Short: "Generate operation wallets for the project",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.project(cmd.Context(), opts.project); err != nil {
				return err
			}
			wallets, err := d.camp.GenerateWallets(cmd.Context(), args[0], fresh)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), addresses(wallets))
		}),
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "replace the existing wallets")
	return cmd
}

func newProjectDownloadCmd(opts *globalOpts) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the project wallets as CSV",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.project(cmd.Context(), opts.project); err != nil {
				return err
			}
			path, rows, err := d.camp.DownloadWallets(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d wallets)\n", path, rows)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	return cmd
}

func newProjectImportWalletCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "import-wallet [private-key]",
		Short: "Import a wallet into the project",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.project(cmd.Context(), opts.project); err != nil {
				return err
			}
			wallets, err := d.camp.ImportWallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), addresses(wallets))
		}),
	}
}
