package main

import (
	"github.com/spf13/cobra"
)

func newBotCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Volume bot wallets of a project",
	}

	var fresh bool
	generate := &cobra.Command{
		Use:   "generate [count]",
		Short: "Generate bot wallets",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.project(cmd.Context(), opts.project); err != nil {
				return err
			}
			wallets, err := d.camp.GenerateBotWallets(cmd.Context(), args[0], fresh)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), addresses(wallets))
		}),
	}
	generate.Flags().BoolVar(&fresh, "fresh", false, "replace the existing bot wallets")

	importDeposit := &cobra.Command{
		Use:   "import-deposit [private-key]",
		Short: "Import the wallet funding the bot wallets",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			if _, err := d.project(cmd.Context(), opts.project); err != nil {
				return err
			}
			wallets, err := d.camp.ImportDepositWallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), addresses(wallets))
		}),
	}

	cmd.AddCommand(generate, importDeposit)
	return cmd
}
