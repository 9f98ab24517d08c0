// Package state holds the session-wide view of backend records: the user,
// projects, admin resources and the token balances of the current
// project's wallets.
package state

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// Backend is the subset of *api.Client the store loads from.
type Backend interface {
	LoadAllUsers(ctx context.Context) ([]types.User, error)
	LoadAllProjects(ctx context.Context) ([]types.Project, error)
	LoadEmails(ctx context.Context) ([]types.Email, error)
	LoadJitoSigners(ctx context.Context) ([]types.JitoSigner, error)
	LoadExtraWallets(ctx context.Context) ([]types.ExtraWallet, error)
}

// BalanceReader is the subset of *rpc.Client used for balances.
type BalanceReader interface {
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
	GetTokenAmount(ctx context.Context, owner, mint solana.PublicKey) (uint64, solana.PublicKey, error)
}

// View is the page a project is operated from.
type View string

const (
	ViewBuy  View = "buy"
	ViewSell View = "sell"
)

// ProjectView routes OPEN projects to buying and everything else to selling.
func ProjectView(p types.Project) View {
	if p.Status == types.ProjectOpen {
		return ViewBuy
	}
	return ViewSell
}

// balanceWorkers bounds concurrent balance reads.
const balanceWorkers = 8

// Store is safe for concurrent use. Getters return copies.
type Store struct {
	backend Backend
	chain   BalanceReader
	log     zerolog.Logger

	mu           sync.RWMutex
	user         *types.User
	users        []types.User
	projects     []types.Project
	current      *types.Project
	emails       []types.Email
	signers      []types.JitoSigner
	extraWallets []types.ExtraWallet
	balances     []string
	teamBalances []string
}

// NewStore creates an empty store.
func NewStore(backend Backend, chain BalanceReader, log zerolog.Logger) *Store {
	return &Store{backend: backend, chain: chain, log: log}
}

// SetUser records the logged-in user. nil logs out and clears everything.
func (s *Store) SetUser(u *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		s.users, s.projects, s.current = nil, nil, nil
		s.emails, s.signers, s.extraWallets = nil, nil, nil
		s.balances, s.teamBalances = nil, nil
		return
	}
	cp := *u
	s.user = &cp
}

// User returns the logged-in user.
func (s *Store) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// InitAll reloads every collection the user may see. A failing load is
// logged and leaves its collection empty. The current project is reset.
func (s *Store) InitAll(ctx context.Context) error {
	user, ok := s.User()
	if !ok {
		return types.ErrNotLoggedIn
	}

	var (
		users    []types.User
		projects []types.Project
		emails   []types.Email
		signers  []types.JitoSigner
		extras   []types.ExtraWallet
	)
	g, gctx := errgroup.WithContext(ctx)
	load := func(what string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn().Err(err).Str("collection", what).Msg("initial load failed")
			}
			return nil
		})
	}

	if user.IsAdmin() {
		load("users", func(ctx context.Context) (err error) {
			users, err = s.backend.LoadAllUsers(ctx)
			return err
		})
		load("emails", func(ctx context.Context) (err error) {
			emails, err = s.backend.LoadEmails(ctx)
			return err
		})
		load("jito signers", func(ctx context.Context) (err error) {
			signers, err = s.backend.LoadJitoSigners(ctx)
			return err
		})
		load("extra wallets", func(ctx context.Context) (err error) {
			extras, err = s.backend.LoadExtraWallets(ctx)
			return err
		})
	}
	load("projects", func(ctx context.Context) (err error) {
		projects, err = s.backend.LoadAllProjects(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.projects = projects
	s.emails = emails
	s.signers = signers
	s.extraWallets = extras
	s.current = nil
	s.balances = nil
	s.teamBalances = nil
	return nil
}

// Projects returns a copy of the project list.
func (s *Store) Projects() []types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// SetProjects replaces the project list, e.g. with the answer of an
// activate or delete call. The current project follows its new version and
// is dropped when it disappeared.
func (s *Store) SetProjects(projects []types.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make([]types.Project, len(projects))
	for i, p := range projects {
		s.projects[i] = p.Clone()
	}
	if s.current == nil {
		return
	}
	for _, p := range s.projects {
		if p.ID == s.current.ID {
			cp := p.Clone()
			s.current = &cp
			return
		}
	}
	s.current = nil
}

// Project looks up a project by id.
func (s *Store) Project(id string) (types.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return types.Project{}, false
}

// UpdateProject replaces the project with the same id, including the
// current project when it matches. Unknown projects are appended.
func (s *Store) UpdateProject(p types.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p.Clone()
	found := false
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = cp
			found = true
			break
		}
	}
	if !found {
		s.projects = append(s.projects, cp)
	}
	if s.current != nil && s.current.ID == p.ID {
		cur := p.Clone()
		s.current = &cur
	}
}

// SetCurrentProject selects the project operated on.
func (s *Store) SetCurrentProject(id string) (types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			cp := p.Clone()
			s.current = &cp
			s.balances = nil
			s.teamBalances = nil
			return cp.Clone(), nil
		}
	}
	return types.Project{}, types.ErrNoProject
}

// CurrentProject returns the selected project.
func (s *Store) CurrentProject() (types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.Project{}, types.ErrNoProject
	}
	return s.current.Clone(), nil
}

// Users returns the user list (admin).
func (s *Store) Users() []types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.User(nil), s.users...)
}

// SetUsers replaces the user list.
func (s *Store) SetUsers(users []types.User) {
	s.mu.Lock()
	s.users = append([]types.User(nil), users...)
	s.mu.Unlock()
}

// Emails returns the notification addresses (admin).
func (s *Store) Emails() []types.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Email(nil), s.emails...)
}

// SetEmails replaces the notification addresses.
func (s *Store) SetEmails(emails []types.Email) {
	s.mu.Lock()
	s.emails = append([]types.Email(nil), emails...)
	s.mu.Unlock()
}

// JitoSigners returns the bundle signers (admin).
func (s *Store) JitoSigners() []types.JitoSigner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.JitoSigner(nil), s.signers...)
}

// SetJitoSigners replaces the bundle signers.
func (s *Store) SetJitoSigners(signers []types.JitoSigner) {
	s.mu.Lock()
	s.signers = append([]types.JitoSigner(nil), signers...)
	s.mu.Unlock()
}

// ExtraWallets returns the contact wallets (admin).
func (s *Store) ExtraWallets() []types.ExtraWallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ExtraWallet(nil), s.extraWallets...)
}

// SetExtraWallets replaces the contact wallets.
func (s *Store) SetExtraWallets(wallets []types.ExtraWallet) {
	s.mu.Lock()
	s.extraWallets = append([]types.ExtraWallet(nil), wallets...)
	s.mu.Unlock()
}

// Balances returns the last refreshed token balances of the current
// project's wallets and team wallets, index aligned with them.
func (s *Store) Balances() (wallets, team []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.balances...), append([]string(nil), s.teamBalances...)
}

// RefreshBalances reads the token balance of every wallet and team wallet.
// Entries that cannot be read are "0.0000"; when the mint itself cannot be
// read every entry is "0".
func (s *Store) RefreshBalances(ctx context.Context, token string, wallets, teamWallets []string) ([]string, []string) {
	balances, team := s.readBalances(ctx, token, wallets, teamWallets)
	s.mu.Lock()
	s.balances = balances
	if teamWallets != nil {
		s.teamBalances = team
	}
	s.mu.Unlock()
	return append([]string(nil), balances...), append([]string(nil), team...)
}

func (s *Store) readBalances(ctx context.Context, token string, wallets, teamWallets []string) ([]string, []string) {
	zeros := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "0"
		}
		return out
	}

	mint, err := wallet.ParseAddress(token)
	if err != nil {
		s.log.Warn().Err(err).Str("token", token).Msg("invalid token address, balances zeroed")
		return zeros(len(wallets)), zeros(len(teamWallets))
	}
	decimals, err := s.chain.GetMintDecimals(ctx, mint)
	if err != nil {
		s.log.Warn().Err(err).Str("token", token).Msg("read mint failed, balances zeroed")
		return zeros(len(wallets)), zeros(len(teamWallets))
	}

	balances := make([]string, len(wallets))
	team := make([]string, len(teamWallets))
	var g errgroup.Group
	g.SetLimit(balanceWorkers)
	read := func(out []string, i int, addr string) {
		g.Go(func() error {
			out[i] = s.balanceOf(ctx, mint, decimals, addr)
			return nil
		})
	}
	for i, w := range wallets {
		read(balances, i, w)
	}
	for i, w := range teamWallets {
		read(team, i, w)
	}
	_ = g.Wait()
	return balances, team
}

func (s *Store) balanceOf(ctx context.Context, mint solana.PublicKey, decimals uint8, addr string) string {
	const empty = "0.0000"
	owner, err := wallet.ParseAddress(addr)
	if err != nil {
		return empty
	}
	raw, _, err := s.chain.GetTokenAmount(ctx, owner, mint)
	if err != nil {
		s.log.Debug().Err(err).Str("wallet", addr).Msg("read token balance failed")
		return empty
	}
	return amount.FormatBaseUnits(raw, decimals)
}
