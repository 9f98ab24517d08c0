package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOpts struct {
	configPath   string
	serverURL    string
	wsHost       string
	rpcURL       string
	commitment   string
	ownerKey     string
	signerURL    string
	signerPubkey string
	relay        string
	devnet       bool
	project      string
	logLevel     string
	metricsAddr  string
	timeoutSec   int
	eventWaitSec int
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "launchcli",
		Short:         "Launchpad operator CLI (projects, bundles, tokens, markets, liquidity)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.serverURL, "server", "", "launchpad backend URL")
	pf.StringVar(&opts.wsHost, "ws-host", "", "push channel host (default derived from --server)")
	pf.StringVar(&opts.rpcURL, "rpc-url", "", "RPC endpoint (default mainnet if empty)")
	pf.StringVar(&opts.commitment, "commitment", "", "RPC commitment level")
	pf.StringVar(&opts.ownerKey, "owner", "", "owner keypair: solana-keygen json path or base58 private key")
	pf.StringVar(&opts.signerURL, "signer-url", "", "remote signer endpoint")
	pf.StringVar(&opts.signerPubkey, "signer-pubkey", "", "public key served by --signer-url")
	pf.StringVar(&opts.relay, "relay", "", "relay mode for owner transactions (backend|rpc|jito)")
	pf.BoolVar(&opts.devnet, "devnet", false, "use devnet program ids and RPC")
	pf.StringVarP(&opts.project, "project", "p", "", "project id to operate on")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	pf.IntVar(&opts.timeoutSec, "timeout-sec", 0, "HTTP and RPC timeout seconds")
	pf.IntVar(&opts.eventWaitSec, "event-timeout-sec", 0, "seconds to wait for a completion event")

	root.AddCommand(
		newConfigCmd(opts),
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newUsersCmd(opts),
		newProjectCmd(opts),
		newBuyCmd(opts),
		newSellCmd(opts),
		newTokenCmd(opts),
		newMarketCmd(opts),
		newLPCmd(opts),
		newBotCmd(opts),
		newAdminCmd(opts),
		newAccountCmd(opts),
		newListenCmd(opts),
	)

	return root
}

func newConfigCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ws, err := cfg.Server.ResolveWSHost()
			if err != nil {
				return err
			}
			if cfg.Server.PinataJWT != "" {
				cfg.Server.PinataJWT = "<redacted>"
			}
			if cfg.OwnerKey != "" && !strings.HasSuffix(cfg.OwnerKey, ".json") {
				cfg.OwnerKey = "<redacted>"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "network=%s\nrpc=%s\ncommitment=%s\nws=%s\n", cfg.RPC.Network, cfg.RPC.ResolveRPCURL(), cfg.RPC.Commitment, ws)
			bz, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bz)
			return err
		},
	}
}

func parseLogLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
