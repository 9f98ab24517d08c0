// Package campaign drives the workflows the backend executes for a project:
// payment and activation, simulate, disperse, buy, sell and the SOL sweeps.
// Each request is answered by a push event which the workflow awaits on the
// notification hub.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ninja0404/launchpad-go-sdk/pkg/api"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/state"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// Backend is the part of *api.Client the workflows call.
type Backend interface {
	Login(ctx context.Context, name, password string) (types.User, error)
	Logout(ctx context.Context) error

	CreateProject(ctx context.Context, name string) (api.NewProject, error)
	CheckStatus(ctx context.Context, projectID string) (api.ProjectStatus, error)
	LoadAllProjects(ctx context.Context) ([]types.Project, error)
	ActivateProject(ctx context.Context, projectID string) ([]types.Project, error)
	DeleteProject(ctx context.Context, projectID string) ([]types.Project, error)
	SaveProject(ctx context.Context, req api.SaveRequest) (types.Project, error)

	Simulate(ctx context.Context, req api.SimulateRequest) error
	Disperse(ctx context.Context, sim *types.SimulationResult) error
	Buy(ctx context.Context, projectID string, sim *types.SimulationResult) error
	Sell(ctx context.Context, req api.SellRequest) error
	CollectAllSOL(ctx context.Context, req api.CollectRequest) error
	CollectFee(ctx context.Context, target string) error

	DownloadWallets(ctx context.Context, projectID string) ([]byte, error)
	GenerateWallets(ctx context.Context, projectID string, count int, fresh bool) ([]types.Wallet, error)
	ImportWallet(ctx context.Context, projectID, privateKey string) ([]types.Wallet, error)
	GenerateBotWallets(ctx context.Context, projectID string, count int, fresh bool) ([]types.Wallet, error)
	ImportDepositWallet(ctx context.Context, projectID, privateKey string) ([]types.Wallet, error)

	LoadAllUsers(ctx context.Context) ([]types.User, error)
	DeleteUser(ctx context.Context, userID string) ([]types.User, error)
	LoadEmails(ctx context.Context) ([]types.Email, error)
	AddEmail(ctx context.Context, name, email string) ([]types.Email, error)
	DeleteEmail(ctx context.Context, emailID string) ([]types.Email, error)
	LoadJitoSigners(ctx context.Context) ([]types.JitoSigner, error)
	AddJitoSigner(ctx context.Context, privateKey string) ([]types.JitoSigner, error)
	DeleteJitoSigner(ctx context.Context, address string) ([]types.JitoSigner, error)
	LoadExtraWallets(ctx context.Context) ([]types.ExtraWallet, error)
	AddExtraWallet(ctx context.Context, name, privateKey string) ([]types.ExtraWallet, error)
	DeleteExtraWallet(ctx context.Context, contactID string) ([]types.ExtraWallet, error)
}

// Options tunes a Campaign. Zero values pick the defaults.
type Options struct {
	// EventTimeout bounds the wait for a completion event.
	EventTimeout time.Duration
	// PollInterval spaces the payment checks of a new project.
	PollInterval time.Duration
	Logger       *zerolog.Logger
}

// Campaign is the shared core of the workflows: the backend, the hub the
// listener publishes to and the session store.
type Campaign struct {
	api   Backend
	hub   *notify.Hub
	store *state.Store

	eventTimeout time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// New creates a Campaign.
func New(backend Backend, hub *notify.Hub, store *state.Store, opts Options) (*Campaign, error) {
	if backend == nil {
		return nil, types.ErrNilAPI
	}
	if hub == nil {
		return nil, fmt.Errorf("campaign: nil notification hub")
	}
	if store == nil {
		return nil, fmt.Errorf("campaign: nil state store")
	}
	c := &Campaign{
		api:          backend,
		hub:          hub,
		store:        store,
		eventTimeout: opts.EventTimeout,
		pollInterval: opts.PollInterval,
		log:          zerolog.Nop(),
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	if c.eventTimeout <= 0 {
		c.eventTimeout = 3 * time.Minute
	}
	if c.pollInterval <= 0 {
		c.pollInterval = time.Second
	}
	return c, nil
}

// Store returns the session store.
func (c *Campaign) Store() *state.Store {
	return c.store
}

// await subscribes to tags, runs call and returns the first matching event.
// The subscription exists before the request leaves so a fast answer is
// not missed.
func (c *Campaign) await(ctx context.Context, call func(context.Context) error, tags ...string) (notify.Event, error) {
	sub := c.hub.Subscribe(tags...)
	defer sub.Close()
	if call != nil {
		if err := call(ctx); err != nil {
			return notify.Event{}, err
		}
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.eventTimeout)
	defer cancel()
	ev, err := sub.Next(waitCtx)
	if err != nil {
		return notify.Event{}, fmt.Errorf("wait for %v: %w", tags, err)
	}
	c.log.Debug().Str("tag", ev.Tag).Bool("success", ev.Success).Msg("completion event")
	return ev, nil
}

// current returns the selected project.
func (c *Campaign) current() (types.Project, error) {
	return c.store.CurrentProject()
}

// Login opens a session and loads everything the user may see.
func (c *Campaign) Login(ctx context.Context, name, password string) (types.User, error) {
	user, err := c.api.Login(ctx, name, password)
	if err != nil {
		return types.User{}, err
	}
	c.store.SetUser(&user)
	if err := c.store.InitAll(ctx); err != nil {
		return user, err
	}
	c.log.Info().Str("user", user.Name).Str("role", string(user.Role)).Msg("logged in")
	return user, nil
}

// Logout ends the session and clears the store.
func (c *Campaign) Logout(ctx context.Context) error {
	err := c.api.Logout(ctx)
	c.store.SetUser(nil)
	return err
}
