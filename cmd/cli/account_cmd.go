package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/metaplex"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/openbook"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
)

func newAccountCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "account [pubkey]",
		Short: "Inspect an account (mint, token account, metadata, OpenBook market)",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			pub, err := parsePubkey("account", args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			acc, err := d.rpc.Raw().GetAccountInfo(ctx, pub)
			if err != nil {
				return fmt.Errorf("fetch account: %w", err)
			}
			if acc == nil || acc.Value == nil || acc.Value.Data == nil {
				return fmt.Errorf("account not found or empty")
			}
			data := acc.Value.Data.GetBinary()
			programs := constants.ProgramsFor(d.cfg.Devnet)
			name, decoded, err := decodeKnownAccount(pub, acc.Value.Owner, programs, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account=%s program=%s lamports=%d\n", name, acc.Value.Owner, acc.Value.Lamports)
			return printJSON(cmd.OutOrStdout(), decoded)
		}),
	}
}

// decodeKnownAccount picks a decoder from the owning program and the data
// size.
func decodeKnownAccount(pub, owner solana.PublicKey, programs constants.Programs, data []byte) (string, interface{}, error) {
	switch {
	case owner.Equals(constants.TokenProgramID) && len(data) == constants.MintAccountSize:
		m, err := spltoken.DecodeMint(data)
		return "spltoken.Mint", m, err
	case owner.Equals(constants.TokenProgramID) && len(data) == constants.TokenAccountSize:
		a, err := spltoken.DecodeAccount(data)
		return "spltoken.Account", a, err
	case owner.Equals(constants.MetadataProgramID):
		md, err := metaplex.DecodeMetadata(data)
		return "metaplex.Metadata", md, err
	case owner.Equals(programs.OpenBook) && len(data) == openbook.MarketSize:
		m, err := openbook.DecodeMarket(pub, data)
		return "openbook.Market", m, err
	}
	return "", nil, fmt.Errorf("no decoder for %d bytes owned by %s", len(data), owner)
}
