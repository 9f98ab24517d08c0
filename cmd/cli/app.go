package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/api"
	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
	sdkconfig "github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/jito"
	"github.com/ninja0404/launchpad-go-sdk/pkg/launch"
	"github.com/ninja0404/launchpad-go-sdk/pkg/metadata"
	"github.com/ninja0404/launchpad-go-sdk/pkg/metrics"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	sdkrpc "github.com/ninja0404/launchpad-go-sdk/pkg/rpc"
	"github.com/ninja0404/launchpad-go-sdk/pkg/state"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// hubQueue is the per-subscriber buffer of the notification hub.
const hubQueue = 64

// connectWait bounds the wait for the push channel before a request.
const connectWait = 15 * time.Second

// runtimeDeps is everything a command may need. Pieces that touch the
// network are built on demand.
type runtimeDeps struct {
	cfg    sdkconfig.Config
	log    zerolog.Logger
	tokens api.TokenStore
	api    *api.Client
	hub    *notify.Hub
	rpc    *sdkrpc.Client
	store  *state.Store
	camp   *campaign.Campaign

	metricsSrv *http.Server
	listening  bool
	cancel     context.CancelFunc
}

func loadConfig(opts *globalOpts) (sdkconfig.Config, error) {
	cfg, err := sdkconfig.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.serverURL != "" {
		cfg.Server.URL = opts.serverURL
	}
	if opts.wsHost != "" {
		cfg.Server.WSHost = opts.wsHost
	}
	if opts.rpcURL != "" {
		cfg.RPC.RPCURL = opts.rpcURL
		cfg.RPC.Network = sdkconfig.NetworkCustom
	}
	if opts.commitment != "" {
		cfg.RPC.Commitment = opts.commitment
	}
	if opts.ownerKey != "" {
		cfg.OwnerKey = opts.ownerKey
	}
	if opts.relay != "" {
		cfg.Server.Relay = sdkconfig.RelayMode(opts.relay)
	}
	if opts.devnet {
		cfg.Devnet = true
		if cfg.RPC.Network == sdkconfig.NetworkMainnet {
			cfg.RPC.Network = sdkconfig.NetworkDevnet
			cfg.RPC.RPCURL = sdkconfig.DefaultRPCURL(sdkconfig.NetworkDevnet)
		}
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Server.MetricsAddr = opts.metricsAddr
	}
	if opts.timeoutSec > 0 {
		cfg.Server.Timeout = time.Duration(opts.timeoutSec) * time.Second
		cfg.RPC.Timeout = cfg.Server.Timeout
	}
	if opts.eventWaitSec > 0 {
		cfg.Server.EventTimeout = time.Duration(opts.eventWaitSec) * time.Second
	}
	return cfg, cfg.Validate()
}

// newDeps builds the offline pieces and restores the saved session.
func newDeps(cmd *cobra.Command, opts *globalOpts) (*runtimeDeps, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger().Level(parseLogLevel(cfg.LogLevel))
	cfg.RPC.Logger = log.With().Str("component", "rpc").Logger()

	d := &runtimeDeps{
		cfg:    cfg,
		log:    log,
		tokens: api.TokenStore{Path: cfg.Server.TokenFile},
		hub:    notify.NewHub(hubQueue),
		rpc:    sdkrpc.NewClient(cfg.RPC),
	}
	token, err := d.tokens.Load()
	if err != nil {
		return nil, err
	}
	d.api = api.NewClient(cfg.Server,
		api.WithToken(token),
		api.WithLogger(log.With().Str("component", "api").Logger()),
		api.WithObserver(metrics.ObserveAPI),
	)
	d.store = state.NewStore(d.api, d.rpc, log.With().Str("component", "state").Logger())
	d.camp, err = campaign.New(d.api, d.hub, d.store, campaign.Options{
		EventTimeout: cfg.Server.EventTimeout,
		PollInterval: cfg.Server.PollInterval,
		Logger:       &log,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Server.MetricsAddr != "" {
		d.metricsSrv = metrics.Serve(cfg.Server.MetricsAddr)
		log.Info().Str("addr", cfg.Server.MetricsAddr).Msg("serving metrics")
	}
	if user, ok, err := d.tokens.LoadUser(); err != nil {
		return nil, err
	} else if ok && d.api.LoggedIn() {
		d.store.SetUser(&user)
	}
	return d, nil
}

// close stops the listener and the metrics server.
func (d *runtimeDeps) close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.metricsSrv.Shutdown(ctx)
	}
}

// withDeps runs fn with fresh deps and releases them afterwards.
func withDeps(opts *globalOpts, fn func(cmd *cobra.Command, args []string, d *runtimeDeps) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd, opts)
		if err != nil {
			return err
		}
		defer d.close()
		return fn(cmd, args, d)
	}
}

func (d *runtimeDeps) user() (types.User, error) {
	user, ok := d.store.User()
	if !ok {
		return types.User{}, fmt.Errorf("%w: run launchcli login", types.ErrNotLoggedIn)
	}
	return user, nil
}

// session loads the collections of the saved user and selects projectID
// when one is given.
func (d *runtimeDeps) session(ctx context.Context, projectID string) error {
	if _, err := d.user(); err != nil {
		return err
	}
	if err := d.store.InitAll(ctx); err != nil {
		return err
	}
	if projectID == "" {
		return nil
	}
	_, err := d.camp.SelectProject(projectID)
	return err
}

// project is session plus a mandatory project selection.
func (d *runtimeDeps) project(ctx context.Context, projectID string) (types.Project, error) {
	if projectID == "" {
		return types.Project{}, errors.New("project id is required (use --project)")
	}
	if err := d.session(ctx, projectID); err != nil {
		return types.Project{}, err
	}
	return d.store.CurrentProject()
}

// listen starts the push listener and waits until it is connected. Events
// also feed the store and the push metrics.
func (d *runtimeDeps) listen(ctx context.Context) error {
	if d.listening {
		return nil
	}
	user, err := d.user()
	if err != nil {
		return err
	}
	host, err := d.cfg.Server.ResolveWSHost()
	if err != nil {
		return err
	}
	l, err := notify.NewListener(host, user.ID, d.hub,
		notify.WithListenerLogger(d.log.With().Str("component", "notify").Logger()),
		notify.WithEventHook(func(ev notify.Event) {
			metrics.ObservePush(ev.Tag, ev.Success)
			d.store.ApplyEvent(ev)
		}),
		notify.WithReconnectBackoff(d.cfg.Server.Retry.InitialBackoff, d.cfg.Server.Retry.MaxBackoff),
	)
	if err != nil {
		return err
	}

	sub := d.hub.Subscribe(notify.TagConnect)
	defer sub.Close()
	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go func() {
		if err := l.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Warn().Err(err).Msg("listener stopped")
		}
	}()
	d.listening = true

	waitCtx, stop := context.WithTimeout(ctx, connectWait)
	defer stop()
	if _, err := sub.Next(waitCtx); err != nil {
		return fmt.Errorf("connect push channel %s: %w", host, err)
	}
	return nil
}

// owner resolves the acting signer: a remote signer, a keygen file or a
// base58 private key.
func (d *runtimeDeps) owner(opts *globalOpts) (wallet.Signer, error) {
	if opts.signerURL != "" {
		pub, err := parsePubkey("signer-pubkey", opts.signerPubkey)
		if err != nil {
			return nil, err
		}
		return wallet.NewHTTPSigner(pub, opts.signerURL, &http.Client{Timeout: d.cfg.Server.Timeout}), nil
	}
	key := strings.TrimSpace(d.cfg.OwnerKey)
	if key == "" {
		return nil, fmt.Errorf("owner is required (use --owner or LAUNCHPAD_OWNER_KEY)")
	}
	if _, err := os.Stat(key); err == nil {
		return wallet.NewLocalFromKeygen(key)
	}
	return wallet.NewLocalFromBase58(key)
}

// executor builds the on-chain workflow runner. The backend relay needs a
// session and the push channel.
func (d *runtimeDeps) executor(ctx context.Context, opts *globalOpts, mint launch.MintSource) (*launch.Executor, error) {
	owner, err := d.owner(opts)
	if err != nil {
		return nil, err
	}
	cfg := d.cfg.Server
	exOpts := launch.Options{
		Mode:         cfg.Relay,
		Relay:        d.api,
		Hub:          d.hub,
		EventTimeout: cfg.EventTimeout,
		MintSource:   mint,
		Programs:     constants.ProgramsFor(d.cfg.Devnet),
		Logger:       &d.log,
		Observer: func(txType types.TxType, mode sdkconfig.RelayMode, n int) {
			metrics.ObserveRelay(txType.String(), string(mode), n)
		},
	}
	if cfg.TipSOL != "" {
		tip, err := decimal.NewFromString(cfg.TipSOL)
		if err != nil {
			return nil, fmt.Errorf("tip_sol: %w", err)
		}
		if exOpts.TipLamports, err = amount.SOLToLamports(tip); err != nil {
			return nil, fmt.Errorf("tip_sol: %w", err)
		}
	}
	if len(cfg.JitoEndpoints) > 0 {
		exOpts.Jito = jito.NewClientWithEndpoints(cfg.JitoEndpoints, "")
	}
	if cfg.PinataJWT != "" {
		exOpts.Pinner = metadata.NewPinata(cfg.PinataURL, cfg.PinataJWT, &http.Client{Timeout: cfg.Timeout})
	}
	if cfg.Relay == sdkconfig.RelayBackend || cfg.Relay == "" {
		user, err := d.user()
		if err != nil {
			return nil, err
		}
		exOpts.UserID = user.ID
		if err := d.listen(ctx); err != nil {
			return nil, err
		}
	}
	return launch.NewExecutor(d.rpc, owner, exOpts)
}

// reader builds an executor for chain reads only. Nothing is relayed, so
// it needs neither a session nor the push channel.
func (d *runtimeDeps) reader(opts *globalOpts) (*launch.Executor, error) {
	owner, err := d.owner(opts)
	if err != nil {
		return nil, err
	}
	return launch.NewExecutor(d.rpc, owner, launch.Options{
		Mode:     sdkconfig.RelayRPC,
		Programs: constants.ProgramsFor(d.cfg.Devnet),
		Logger:   &d.log,
	})
}
