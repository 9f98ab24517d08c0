package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
)

func campaignAdmin(d *runtimeDeps) *campaign.Admin {
	return campaign.NewAdmin(d.camp)
}

// adminCall runs fn on a logged-in admin facade and prints what it returns.
func adminCall(opts *globalOpts, fn func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
	return withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
		if _, err := d.user(); err != nil {
			return err
		}
		out, err := fn(cmd.Context(), campaignAdmin(d), args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}

func newAdminCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Backend-wide resources (admin)",
	}
	cmd.AddCommand(newEmailsCmd(opts), newSignersCmd(opts), newExtraWalletsCmd(opts))
	return cmd
}

func newEmailsCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "emails", Short: "Notification emails"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List emails",
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, _ []string) (interface{}, error) {
				return a.Emails(ctx)
			}),
		},
		&cobra.Command{
			Use:   "add [name] [email]",
			Short: "Add an email",
			Args:  cobra.ExactArgs(2),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.AddEmail(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete [email-id]",
			Short: "Delete an email",
			Args:  cobra.ExactArgs(1),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.DeleteEmail(ctx, args[0])
			}),
		},
	)
	return cmd
}

func newSignersCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "signers", Short: "Jito bundle signers"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List signers",
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, _ []string) (interface{}, error) {
				return a.JitoSigners(ctx)
			}),
		},
		&cobra.Command{
			Use:   "add [private-key]",
			Short: "Add a signer",
			Args:  cobra.ExactArgs(1),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.AddJitoSigner(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "delete [address]",
			Short: "Delete a signer",
			Args:  cobra.ExactArgs(1),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.DeleteJitoSigner(ctx, args[0])
			}),
		},
	)
	return cmd
}

func newExtraWalletsCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{Use: "extra-wallets", Short: "Named contact wallets"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List extra wallets",
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, _ []string) (interface{}, error) {
				return a.ExtraWallets(ctx)
			}),
		},
		&cobra.Command{
			Use:   "add [name] [private-key]",
			Short: "Add an extra wallet",
			Args:  cobra.ExactArgs(2),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.AddExtraWallet(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete [contact-id]",
			Short: "Delete an extra wallet",
			Args:  cobra.ExactArgs(1),
			RunE: adminCall(opts, func(ctx context.Context, a *campaign.Admin, args []string) (interface{}, error) {
				return a.DeleteExtraWallet(ctx, args[0])
			}),
		},
	)
	return cmd
}
