package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ninja0404/launchpad-go-sdk/pkg/api"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// Step is the state of a project awaiting payment.
type Step int

const (
	// StepCreated is reported once, after the backend opened the project.
	StepCreated Step = iota
	// StepWaiting is reported after each check that found no payment.
	StepWaiting
	StepActivated
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepCreated:
		return "created"
	case StepWaiting:
		return "waiting"
	case StepActivated:
		return "activated"
	case StepFailed:
		return "failed"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Progress is passed to the callback of CreateProject.
type Progress struct {
	Step          Step
	ProjectID     string
	DepositWallet string
	// ExpireTime is the payment deadline in unix milliseconds as last
	// reported by the backend.
	ExpireTime int64
	Err        error
}

// CreateProject opens a project and polls its payment status until it is
// activated, expired or a check fails. The project list is reloaded once
// the project is activated.
func (c *Campaign) CreateProject(ctx context.Context, name string, progress func(Progress)) (api.NewProject, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	name = strings.TrimSpace(name)
	created, err := c.api.CreateProject(ctx, name)
	if err != nil {
		return api.NewProject{}, err
	}
	p := Progress{
		Step:          StepCreated,
		ProjectID:     created.ProjectID,
		DepositWallet: created.DepositWallet,
		ExpireTime:    created.ExpireTime,
	}
	progress(p)
	c.log.Info().
		Str("project", created.ProjectID).
		Str("deposit_wallet", created.DepositWallet).
		Int64("expire_time", created.ExpireTime).
		Msg("project created, awaiting payment")

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		case <-ticker.C:
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}

		status, err := c.api.CheckStatus(ctx, created.ProjectID)
		switch {
		case err != nil:
			p.Step, p.Err = StepFailed, err
		case status.Activated:
			p.Step = StepActivated
		case status.Expired:
			p.Step, p.Err = StepFailed, types.ErrProjectExpired
		default:
			p.Step = StepWaiting
			if status.ExpireTime != 0 {
				p.ExpireTime = status.ExpireTime
				created.ExpireTime = status.ExpireTime
			}
		}
		progress(p)

		switch p.Step {
		case StepActivated:
			c.log.Info().Str("project", created.ProjectID).Msg("project activated")
			if err := c.ReloadProjects(ctx); err != nil {
				c.log.Warn().Err(err).Msg("reload projects")
			}
			return created, nil
		case StepFailed:
			c.log.Warn().Str("project", created.ProjectID).Err(p.Err).Msg("project not activated")
			return created, fmt.Errorf("project %s: %w", created.ProjectID, p.Err)
		}
	}
}

// ReloadProjects refreshes the project list of the store.
func (c *Campaign) ReloadProjects(ctx context.Context) error {
	projects, err := c.api.LoadAllProjects(ctx)
	if err != nil {
		return err
	}
	c.store.SetProjects(projects)
	return nil
}

// ActivateProject activates a project (admin) and stores the new list.
func (c *Campaign) ActivateProject(ctx context.Context, projectID string) ([]types.Project, error) {
	projects, err := c.api.ActivateProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.store.SetProjects(projects)
	return projects, nil
}

// DeleteProject deletes a project and stores the new list.
func (c *Campaign) DeleteProject(ctx context.Context, projectID string) ([]types.Project, error) {
	projects, err := c.api.DeleteProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c.store.SetProjects(projects)
	return projects, nil
}

// SelectProject makes projectID the current project.
func (c *Campaign) SelectProject(projectID string) (types.Project, error) {
	p, err := c.store.SetCurrentProject(projectID)
	if err != nil {
		return types.Project{}, fmt.Errorf("%w: %s", err, projectID)
	}
	return p, nil
}

// SaveProject persists the buy form of the current project: token, zombie
// wallet and the planned amounts of every wallet.
func (c *Campaign) SaveProject(ctx context.Context, form BuyForm) (types.Project, error) {
	project, err := c.current()
	if err != nil {
		return types.Project{}, err
	}
	zombie, err := form.zombieKey()
	if err != nil && strings.TrimSpace(form.Zombie) != "" {
		return types.Project{}, err
	}
	plans := make([]api.WalletDraft, len(project.Wallets))
	for i, w := range project.Wallets {
		row := form.row(i)
		plans[i] = api.WalletDraft{
			Address:            w.Address,
			InitialTokenAmount: row.TokenAmount,
			InitialSolAmount:   row.SolAmount,
		}
	}
	saved, err := c.api.SaveProject(ctx, api.SaveRequest{
		ProjectID: project.ID,
		Token:     strings.TrimSpace(form.Token),
		Zombie:    zombie,
		Wallets:   plans,
	})
	if err != nil {
		return types.Project{}, err
	}
	c.store.UpdateProject(saved)
	c.log.Info().Str("project", saved.ID).Msg("project saved")
	return saved, nil
}
