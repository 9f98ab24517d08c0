package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

// parsePubkey converts base58 string to PublicKey.
func parsePubkey(label, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", label)
	}
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(v))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s invalid pubkey: %w", label, err)
	}
	return pk, nil
}

// quoteMint defaults the quote side of a pair to wrapped SOL.
func quoteMint(v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.WrappedSol, nil
	}
	return parsePubkey("quote", v)
}

func printJSON(w io.Writer, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bz))
	return err
}

// printResult reports a relayed batch the same way for every command.
func printResult(cmd *cobra.Command, label string, sigs []solana.Signature, bundleID string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s ok\n", label)
	for _, s := range sigs {
		fmt.Fprintf(out, "  signature=%s\n", s)
	}
	if bundleID != "" {
		fmt.Fprintf(out, "  bundle=%s\n", bundleID)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
