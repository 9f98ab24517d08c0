package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type credentialFlags struct {
	name     string
	password string
}

func (c *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.name, "name", "", "account name")
	cmd.Flags().StringVar(&c.password, "password", "", "password (read from LAUNCHPAD_PASSWORD or stdin if empty)")
	_ = cmd.MarkFlagRequired("name")
}

func (c *credentialFlags) resolve(cmd *cobra.Command) (string, string, error) {
	pw := c.password
	if pw == "" {
		pw = os.Getenv("LAUNCHPAD_PASSWORD")
	}
	if pw == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if strings.TrimSpace(c.name) == "" || pw == "" {
		return "", "", fmt.Errorf("name and password are required")
	}
	return strings.TrimSpace(c.name), pw, nil
}

func newLoginCmd(opts *globalOpts) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			name, pw, err := creds.resolve(cmd)
			if err != nil {
				return err
			}
			user, err := d.camp.Login(cmd.Context(), name, pw)
			if err != nil {
				return err
			}
			if err := d.tokens.Save(d.api.Token()); err != nil {
				return err
			}
			if err := d.tokens.SaveUser(user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (role=%s, projects=%d)\n", user.Name, user.Role, len(d.store.Projects()))
			return nil
		}),
	}
	creds.bind(cmd)
	return cmd
}

func newRegisterCmd(opts *globalOpts) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			name, pw, err := creds.resolve(cmd)
			if err != nil {
				return err
			}
			if err := d.api.Register(cmd.Context(), name, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s, run launchcli login\n", name)
			return nil
		}),
	}
	creds.bind(cmd)
	return cmd
}

func newLogoutCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			err := d.camp.Logout(cmd.Context())
			if clearErr := d.tokens.Clear(); clearErr != nil {
				return clearErr
			}
			if err != nil {
				d.log.Warn().Err(err).Msg("logout request failed, local session cleared")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func newUsersCmd(opts *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (admin)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
				if _, err := d.user(); err != nil {
					return err
				}
				users, err := campaignAdmin(d).Users(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), users)
			}),
		},
		&cobra.Command{
			Use:   "delete [user-id]",
			Short: "Delete a user",
			Args:  cobra.ExactArgs(1),
			RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
				if _, err := d.user(); err != nil {
					return err
				}
				users, err := campaignAdmin(d).DeleteUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), users)
			}),
		},
	)
	return cmd
}
