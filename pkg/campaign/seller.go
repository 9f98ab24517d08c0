package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/api"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// PoolSource looks up the pool keys of a token when the project has none
// recorded. *launch.Executor implements it.
type PoolSource interface {
	PoolInfo(ctx context.Context, token solana.PublicKey) (*types.PoolKeys, error)
}

// SellRow is the sell order of one wallet.
type SellRow struct {
	Checked bool
	// Percent of the wallet's token balance to sell.
	Percent        string
	TransferOnSale bool
}

// SellForm holds one row per project wallet and per team wallet.
type SellForm struct {
	Wallets     []SellRow
	TeamWallets []SellRow
}

// Seller runs sales and SOL sweeps on the current project.
type Seller struct {
	c     *Campaign
	pools PoolSource
}

// NewSeller creates a Seller. pools may be nil.
func NewSeller(c *Campaign, pools PoolSource) *Seller {
	return &Seller{c: c, pools: pools}
}

func sellOrders(label string, wallets []types.Wallet, rows []SellRow) ([]api.SellWallet, error) {
	var out []api.SellWallet
	for i, w := range wallets {
		if i >= len(rows) || !rows[i].Checked {
			continue
		}
		pct, err := amount.Parse(rows[i].Percent)
		if err != nil || !pct.IsPositive() {
			return nil, types.NewValidationError(fmt.Sprintf("%s #%d", label, i+1), "Invalid percentage")
		}
		out = append(out, api.SellWallet{
			Address:        w.Address,
			Percentage:     json.Number(pct.String()),
			TransferOnSale: rows[i].TransferOnSale,
		})
	}
	return out, nil
}

// Sell sells the checked wallets' percentages of the project token and
// stores the project the backend reports back.
func (s *Seller) Sell(ctx context.Context, form SellForm) (*types.Project, error) {
	project, err := s.c.current()
	if err != nil {
		return nil, err
	}
	token := project.TokenAddress()
	mint, err := wallet.ParseAddress(token)
	if err != nil {
		return nil, types.NewValidationError("token", "invalid token address")
	}
	wallets, err := sellOrders("Wallet", project.Wallets, form.Wallets)
	if err != nil {
		return nil, err
	}
	team, err := sellOrders("Team Wallet", project.UserWallets, form.TeamWallets)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 && len(team) == 0 {
		return nil, fmt.Errorf("%w: check wallets to sell tokens", types.ErrNoWalletChecked)
	}

	pool := project.PoolInfo
	if pool == nil && s.pools != nil {
		if pool, err = s.pools.PoolInfo(ctx, mint); err != nil {
			return nil, fmt.Errorf("pool info: %w", err)
		}
	}

	req := api.SellRequest{
		ProjectID:   project.ID,
		Token:       token,
		PoolInfo:    pool,
		Wallets:     wallets,
		UserWallets: team,
	}
	s.c.log.Info().
		Str("project", project.ID).
		Int("wallets", len(wallets)).
		Int("team_wallets", len(team)).
		Msg("selling")
	ev, err := s.c.await(ctx, func(ctx context.Context) error {
		return s.c.api.Sell(ctx, req)
	}, notify.TagSellCompleted)
	if err != nil {
		return nil, err
	}
	var updated *types.Project
	if ev.Project != nil {
		s.c.store.UpdateProject(*ev.Project)
		cp := ev.Project.Clone()
		updated = &cp
	}
	return updated, ev.Err()
}

// CollectAllSOL sweeps the SOL of the given project and team wallets to
// target.
func (s *Seller) CollectAllSOL(ctx context.Context, target string, wallets, teamWallets []string) error {
	project, err := s.c.current()
	if err != nil {
		return err
	}
	target = strings.TrimSpace(target)
	if !wallet.IsValidAddress(target) {
		return types.NewValidationError("target wallet", "input wallet to send SOL")
	}
	if len(wallets) == 0 && len(teamWallets) == 0 {
		return fmt.Errorf("%w: check wallets to collect SOL from", types.ErrNoWalletChecked)
	}
	req := api.CollectRequest{
		ProjectID:    project.ID,
		TargetWallet: target,
		Wallets:      append([]string{}, wallets...),
		UserWallets:  append([]string{}, teamWallets...),
	}
	s.c.log.Info().Str("project", project.ID).Str("target", target).Msg("collecting SOL")
	ev, err := s.c.await(ctx, func(ctx context.Context) error {
		return s.c.api.CollectAllSOL(ctx, req)
	}, notify.TagCollectAllSOL)
	if err != nil {
		return err
	}
	return ev.Err()
}

// CollectFee sweeps the accumulated fees to target (admin).
func (s *Seller) CollectFee(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if !wallet.IsValidAddress(target) {
		return types.NewValidationError("target wallet", "invalid address")
	}
	ev, err := s.c.await(ctx, func(ctx context.Context) error {
		return s.c.api.CollectFee(ctx, target)
	}, notify.TagCollectAllFee)
	if err != nil {
		return err
	}
	return ev.Err()
}

// TransferWatch waits for the transfers the backend runs after a sale with
// TransferOnSale rows.
type TransferWatch struct {
	c   *Campaign
	sub *notify.Subscription
}

// WatchTransfers starts listening for TRANSFER_COMPLETED. Start it before
// Sell and Close it when done.
func (s *Seller) WatchTransfers() *TransferWatch {
	return &TransferWatch{c: s.c, sub: s.c.hub.Subscribe(notify.TagTransferCompleted)}
}

// Wait returns the project after the next completed transfer.
func (w *TransferWatch) Wait(ctx context.Context) (*types.Project, error) {
	waitCtx, cancel := context.WithTimeout(ctx, w.c.eventTimeout)
	defer cancel()
	ev, err := w.sub.Next(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", notify.TagTransferCompleted, err)
	}
	if err := ev.Err(); err != nil {
		return nil, err
	}
	if ev.Project == nil {
		return nil, nil
	}
	w.c.store.UpdateProject(*ev.Project)
	cp := ev.Project.Clone()
	return &cp, nil
}

// Close stops the watch.
func (w *TransferWatch) Close() {
	w.sub.Close()
}

// TransferAll waits for the next backend transfer and stores the project
// it reports.
func (s *Seller) TransferAll(ctx context.Context) (*types.Project, error) {
	w := s.WatchTransfers()
	defer w.Close()
	return w.Wait(ctx)
}
