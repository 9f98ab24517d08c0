package state

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

type fakeBackend struct {
	projects   []types.Project
	failEmails bool
	userCalls  int
}

func (f *fakeBackend) LoadAllUsers(ctx context.Context) ([]types.User, error) {
	f.userCalls++
	return []types.User{{ID: "u1", Name: "alice"}}, nil
}

func (f *fakeBackend) LoadAllProjects(ctx context.Context) ([]types.Project, error) {
	return f.projects, nil
}

func (f *fakeBackend) LoadEmails(ctx context.Context) ([]types.Email, error) {
	if f.failEmails {
		return nil, errors.New("boom")
	}
	return []types.Email{{ID: "e1"}}, nil
}

func (f *fakeBackend) LoadJitoSigners(ctx context.Context) ([]types.JitoSigner, error) {
	return []types.JitoSigner{{Address: "s1"}}, nil
}

func (f *fakeBackend) LoadExtraWallets(ctx context.Context) ([]types.ExtraWallet, error) {
	return nil, nil
}

type fakeBalances struct {
	decimals uint8
	mintErr  error
	amounts  map[solana.PublicKey]uint64
}

func (f fakeBalances) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	return f.decimals, f.mintErr
}

func (f fakeBalances) GetTokenAmount(ctx context.Context, owner, mint solana.PublicKey) (uint64, solana.PublicKey, error) {
	v, ok := f.amounts[owner]
	if !ok {
		return 0, solana.PublicKey{}, types.ErrATANotFound
	}
	return v, solana.PublicKey{}, nil
}

func TestInitAllAdminAndUser(t *testing.T) {
	backend := &fakeBackend{failEmails: true, projects: []types.Project{{ID: "p1", Status: types.ProjectOpen}}}
	s := NewStore(backend, nil, zerolog.Nop())
	require.ErrorIs(t, s.InitAll(context.Background()), types.ErrNotLoggedIn)

	s.SetUser(&types.User{ID: "u1", Role: types.RoleAdmin})
	require.NoError(t, s.InitAll(context.Background()))
	assert.Len(t, s.Users(), 1)
	assert.Empty(t, s.Emails())
	assert.Len(t, s.JitoSigners(), 1)
	assert.Len(t, s.Projects(), 1)

	s.SetUser(&types.User{ID: "u2", Role: types.RoleUser})
	require.NoError(t, s.InitAll(context.Background()))
	assert.Equal(t, 1, backend.userCalls)
	assert.Empty(t, s.Users())
}

func TestUpdateProjectFollowsCurrent(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, zerolog.Nop())
	s.SetProjects([]types.Project{{ID: "p1", Name: "one"}, {ID: "p2", Name: "two"}})

	_, err := s.CurrentProject()
	require.ErrorIs(t, err, types.ErrNoProject)
	_, err = s.SetCurrentProject("p2")
	require.NoError(t, err)

	s.UpdateProject(types.Project{ID: "p2", Name: "renamed", Status: types.ProjectTrade})
	cur, err := s.CurrentProject()
	require.NoError(t, err)
	assert.Equal(t, "renamed", cur.Name)
	assert.Equal(t, ViewSell, ProjectView(cur))

	p1, ok := s.Project("p1")
	require.True(t, ok)
	assert.Equal(t, "one", p1.Name)

	s.SetProjects([]types.Project{{ID: "p1"}})
	_, err = s.CurrentProject()
	assert.ErrorIs(t, err, types.ErrNoProject)
}

func TestGettersReturnCopies(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, zerolog.Nop())
	s.SetProjects([]types.Project{{ID: "p1", Wallets: []types.Wallet{{Address: "a"}}}})
	got := s.Projects()
	got[0].Wallets[0].Address = "mutated"
	p, _ := s.Project("p1")
	assert.Equal(t, "a", p.Wallets[0].Address)
}

func TestApplyEvent(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, zerolog.Nop())
	s.SetProjects([]types.Project{{ID: "p1", Status: types.ProjectOpen}})

	assert.False(t, s.ApplyEvent(notify.Event{Tag: notify.TagBuyCompleted, Success: false, Project: &types.Project{ID: "p1"}}))
	assert.False(t, s.ApplyEvent(notify.Event{Tag: notify.TagCollectAllSOL, Success: true}))
	assert.True(t, s.ApplyEvent(notify.Event{Tag: notify.TagSellCompleted, Success: true,
		Project: &types.Project{ID: "p1", Status: types.ProjectTrade}}))

	p, _ := s.Project("p1")
	assert.Equal(t, types.ProjectTrade, p.Status)
}

func TestRefreshBalances(t *testing.T) {
	holder := solana.NewWallet().PublicKey()
	noATA := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey().String()
	chain := fakeBalances{decimals: 6, amounts: map[solana.PublicKey]uint64{holder: 1_234_567}}
	s := NewStore(&fakeBackend{}, chain, zerolog.Nop())

	wallets, team := s.RefreshBalances(context.Background(), mint,
		[]string{holder.String(), noATA.String(), "not-an-address"}, []string{holder.String()})
	assert.Equal(t, []string{"1.2346", "0.0000", "0.0000"}, wallets)
	assert.Equal(t, []string{"1.2346"}, team)

	gotWallets, gotTeam := s.Balances()
	assert.Equal(t, wallets, gotWallets)
	assert.Equal(t, team, gotTeam)

	s = NewStore(&fakeBackend{}, fakeBalances{mintErr: types.ErrMintNotFound}, zerolog.Nop())
	wallets, team = s.RefreshBalances(context.Background(), mint, []string{holder.String()}, []string{noATA.String()})
	assert.Equal(t, []string{"0"}, wallets)
	assert.Equal(t, []string{"0"}, team)
}

func TestRefreshBalancesPaddedAddresses(t *testing.T) {
	holder := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey().String()
	chain := fakeBalances{decimals: 6, amounts: map[solana.PublicKey]uint64{holder: 2_000_000}}
	s := NewStore(&fakeBackend{}, chain, zerolog.Nop())

	wallets, team := s.RefreshBalances(context.Background(), " "+mint+" ",
		[]string{holder.String() + " ", "\t" + holder.String(), "bad address "}, []string{" "})
	assert.Equal(t, []string{"2.0000", "2.0000", "0.0000"}, wallets)
	assert.Equal(t, []string{"0.0000"}, team)
}
