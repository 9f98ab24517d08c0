package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ninja0404/launchpad-go-sdk/pkg/amount"
	"github.com/ninja0404/launchpad-go-sdk/pkg/api"
	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// WalletRow is the buy plan of one project wallet.
type WalletRow struct {
	Checked     bool
	TokenAmount string
	SolAmount   string
}

// BuyForm is the operator input of the buy page. Rows are index aligned
// with the project wallets; missing rows count as unchecked.
type BuyForm struct {
	Token string
	// Zombie is the disperse wallet, as an address or a base58 private key.
	Zombie      string
	TokenAmount string
	SolAmount   string
	Rows        []WalletRow
}

// NewBuyForm prefills a form from the saved state of p. No wallet is
// checked.
func NewBuyForm(p types.Project) BuyForm {
	f := BuyForm{Token: p.TokenAddress(), Zombie: p.Zombie, Rows: make([]WalletRow, len(p.Wallets))}
	for i, w := range p.Wallets {
		f.Rows[i] = WalletRow{TokenAmount: w.InitialTokenAmount.String(), SolAmount: w.InitialSolAmount.String()}
	}
	return f
}

func (f BuyForm) row(i int) WalletRow {
	if i < 0 || i >= len(f.Rows) {
		return WalletRow{}
	}
	return f.Rows[i]
}

// Checked returns the indexes of the checked rows.
func (f BuyForm) Checked() []int {
	var out []int
	for i, r := range f.Rows {
		if r.Checked {
			out = append(out, i)
		}
	}
	return out
}

func (f BuyForm) zombieKey() (api.ZombieKey, error) {
	s := strings.TrimSpace(f.Zombie)
	if wallet.IsValidAddress(s) {
		return api.ZombieKey{Address: s}, nil
	}
	addr, err := wallet.AddressFromPrivateKey(s)
	if err != nil {
		return api.ZombieKey{}, types.NewValidationError("zombie wallet", "invalid zombie wallet")
	}
	return api.ZombieKey{Address: addr.String(), PrivateKey: s}, nil
}

func walletField(i int) string {
	return fmt.Sprintf("Wallet #%d", i+1)
}

// validateTarget checks what every buy workflow needs: the token, the
// zombie wallet and at least one checked wallet.
func validateTarget(project types.Project, form BuyForm) error {
	if !wallet.IsValidAddress(form.Token) {
		return types.NewValidationError("token", "invalid token address")
	}
	if _, err := form.zombieKey(); err != nil {
		return err
	}
	for i := range project.Wallets {
		if form.row(i).Checked {
			return nil
		}
	}
	return fmt.Errorf("%w: check wallets to buy tokens", types.ErrNoWalletChecked)
}

// ValidateForm checks a form before simulate and disperse.
func ValidateForm(project types.Project, form BuyForm) error {
	if err := validateTarget(project, form); err != nil {
		return err
	}
	total, err := amount.Parse(form.TokenAmount)
	if err != nil || !total.IsPositive() {
		return types.NewValidationError("token amount", "invalid token amount")
	}
	sol, err := amount.Parse(form.SolAmount)
	if err != nil || !sol.IsPositive() {
		return types.NewValidationError("SOL amount", "invalid SOL amount")
	}
	for i := range project.Wallets {
		row := form.row(i)
		if !row.Checked {
			continue
		}
		tokens, err := amount.Parse(row.TokenAmount)
		if err != nil || !tokens.IsPositive() {
			return types.NewValidationError(walletField(i), "Invalid token amount")
		}
		extra, err := amount.ParseOrZero(row.SolAmount)
		if err != nil || extra.IsNegative() {
			return types.NewValidationError(walletField(i), "Invalid additional SOL amount")
		}
	}
	return nil
}

// CheckSimulation allows disperse and buy only while the form still
// matches the simulation exactly. The error wraps types.ErrSimulateFirst.
func CheckSimulation(sim *types.SimulationResult, project types.Project, form BuyForm) error {
	mismatch := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", types.ErrSimulateFirst, fmt.Sprintf(format, args...))
	}
	if sim.IsZero() {
		return mismatch("no simulation")
	}
	if sim.ProjectID != project.ID {
		return mismatch("simulation belongs to project %s", sim.ProjectID)
	}
	if sim.Token == nil || !strings.EqualFold(sim.Token.Address, strings.TrimSpace(form.Token)) {
		return mismatch("token address changed")
	}
	zombie, err := form.zombieKey()
	if err != nil || sim.Zombie == nil || !strings.EqualFold(sim.Zombie.Address, zombie.Address) {
		return mismatch("zombie wallet changed")
	}

	simulated := make(map[int]struct{}, len(sim.Wallets))
	for _, sw := range sim.Wallets {
		i := project.WalletIndex(sw.Address)
		if i < 0 {
			return mismatch("wallet %s is not in the project", sw.Address)
		}
		row := form.row(i)
		if !row.Checked {
			return mismatch("%s is not checked", walletField(i))
		}
		if !amount.Equal(sw.InitialTokenAmount.String(), row.TokenAmount) {
			return mismatch("%s token amount changed", walletField(i))
		}
		if !amount.Equal(sw.InitialSolAmount.String(), row.SolAmount) {
			return mismatch("%s SOL amount changed", walletField(i))
		}
		simulated[i] = struct{}{}
	}
	for i := range project.Wallets {
		if !form.row(i).Checked {
			continue
		}
		if _, ok := simulated[i]; !ok {
			return mismatch("%s was not simulated", walletField(i))
		}
	}
	return nil
}

// ApplySimulation copies the token, the zombie wallet and the simulated
// per-wallet amounts into a copy of project. A simulation of another
// project leaves it unchanged.
func ApplySimulation(project types.Project, sim *types.SimulationResult) types.Project {
	out := project.Clone()
	if sim.IsZero() || sim.ProjectID != project.ID {
		return out
	}
	if sim.Token != nil {
		t := *sim.Token
		out.Token = &t
	}
	if sim.Zombie != nil {
		out.Zombie = sim.Zombie.Address
	}
	for _, sw := range sim.Wallets {
		i := out.WalletIndex(sw.Address)
		if i < 0 {
			continue
		}
		out.Wallets[i].InitialTokenAmount = sw.InitialTokenAmount
		out.Wallets[i].InitialSolAmount = sw.InitialSolAmount
		out.Wallets[i].Sim = append([]byte(nil), sw.Sim...)
	}
	return out
}

// AssignRandomAmounts gives every checked wallet a random whole token
// amount in [min, max]. Reversed bounds are swapped.
func AssignRandomAmounts(form BuyForm, min, max string, rng *rand.Rand) (BuyForm, error) {
	lo, err := amount.Parse(min)
	if err != nil || !lo.IsPositive() {
		return form, types.NewValidationError("minimum amount", "invalid minimum amount")
	}
	hi, err := amount.Parse(max)
	if err != nil || !hi.IsPositive() {
		return form, types.NewValidationError("maximum amount", "invalid maximum amount")
	}
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	low, high := lo.Ceil().IntPart(), hi.Floor().IntPart()
	if low > high {
		return form, types.NewValidationError("token amount range", "contains no whole amount")
	}
	if len(form.Checked()) == 0 {
		return form, fmt.Errorf("%w: select wallets to set token amount", types.ErrNoWalletChecked)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := form
	out.Rows = append([]WalletRow(nil), form.Rows...)
	for i := range out.Rows {
		if out.Rows[i].Checked {
			out.Rows[i].TokenAmount = fmt.Sprint(amount.RandomInRange(rng, low, high))
		}
	}
	return out, nil
}

// Buyer runs simulate, disperse and buy on the current project and keeps
// the last simulation.
type Buyer struct {
	c *Campaign

	mu  sync.Mutex
	sim *types.SimulationResult
}

// NewBuyer creates a Buyer on c.
func NewBuyer(c *Campaign) *Buyer {
	return &Buyer{c: c}
}

// Simulation returns the held simulation or nil.
func (b *Buyer) Simulation() *types.SimulationResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sim
}

// SetSimulation replaces the held simulation, e.g. with one restored from
// disk. nil clears it.
func (b *Buyer) SetSimulation(sim *types.SimulationResult) {
	b.mu.Lock()
	b.sim = sim
	b.mu.Unlock()
}

// Simulate asks the backend to dry-run the form. On success the
// simulation is held and merged into the current project.
func (b *Buyer) Simulate(ctx context.Context, form BuyForm) (*types.SimulationResult, error) {
	project, err := b.c.current()
	if err != nil {
		return nil, err
	}
	if err := ValidateForm(project, form); err != nil {
		return nil, err
	}
	zombie, _ := form.zombieKey()
	req := api.SimulateRequest{
		ProjectID:   project.ID,
		Token:       strings.TrimSpace(form.Token),
		TokenAmount: amount.Clean(form.TokenAmount),
		SolAmount:   amount.Clean(form.SolAmount),
		Zombie:      zombie,
	}
	for i, w := range project.Wallets {
		row := form.row(i)
		if !row.Checked {
			continue
		}
		tokens, err := amount.Number(row.TokenAmount)
		if err != nil {
			return nil, types.NewValidationError(walletField(i), "Invalid token amount")
		}
		sol, err := amount.Number(row.SolAmount)
		if err != nil {
			return nil, types.NewValidationError(walletField(i), "Invalid additional SOL amount")
		}
		req.Wallets = append(req.Wallets, api.WalletPlan{
			Address:            w.Address,
			InitialTokenAmount: tokens,
			InitialSolAmount:   sol,
		})
	}

	b.c.log.Info().Str("project", project.ID).Int("wallets", len(req.Wallets)).Msg("simulating")
	ev, err := b.c.await(ctx, func(ctx context.Context) error {
		return b.c.api.Simulate(ctx, req)
	}, notify.TagSimulateCompleted)
	if err != nil {
		return nil, err
	}
	if err := ev.Err(); err != nil {
		b.SetSimulation(nil)
		return nil, err
	}
	sim, err := ev.Simulation()
	if err != nil {
		b.SetSimulation(nil)
		return nil, err
	}
	b.SetSimulation(sim)
	if sim.ProjectID == project.ID {
		b.c.store.UpdateProject(ApplySimulation(project, sim))
	}
	return sim, nil
}

// gate validates the form against the current project and the held
// simulation.
func (b *Buyer) gate(validate func(types.Project, BuyForm) error, form BuyForm) (types.Project, *types.SimulationResult, error) {
	project, err := b.c.current()
	if err != nil {
		return types.Project{}, nil, err
	}
	if err := validate(project, form); err != nil {
		return types.Project{}, nil, err
	}
	sim := b.Simulation()
	if err := CheckSimulation(sim, project, form); err != nil {
		b.c.log.Warn().Err(err).Msg("simulation check failed")
		return types.Project{}, nil, err
	}
	return project, sim, nil
}

// Disperse funds the simulated wallets from the zombie wallet.
func (b *Buyer) Disperse(ctx context.Context, form BuyForm) error {
	project, sim, err := b.gate(ValidateForm, form)
	if err != nil {
		return err
	}
	b.c.log.Info().Str("project", project.ID).Msg("dispersing")
	ev, err := b.c.await(ctx, func(ctx context.Context) error {
		return b.c.api.Disperse(ctx, sim)
	}, notify.TagDisperseCompleted)
	if err != nil {
		return err
	}
	return ev.Err()
}

// Buy enables the pool and buys per the simulation. The held simulation is
// consumed whatever the outcome reported by the backend.
func (b *Buyer) Buy(ctx context.Context, form BuyForm) (*types.Project, error) {
	project, sim, err := b.gate(validateTarget, form)
	if err != nil {
		return nil, err
	}
	b.c.log.Info().Str("project", project.ID).Msg("enabling pool and buying")
	ev, err := b.c.await(ctx, func(ctx context.Context) error {
		return b.c.api.Buy(ctx, project.ID, sim)
	}, notify.TagBuyCompleted, notify.TagBuySmallToken)
	if err != nil {
		return nil, err
	}
	b.SetSimulation(nil)
	if ev.Tag == notify.TagBuySmallToken {
		return nil, types.ErrTokenAmountInsufficient
	}
	if err := ev.Err(); err != nil {
		return nil, err
	}
	if ev.Project == nil {
		return nil, nil
	}
	b.c.store.UpdateProject(*ev.Project)
	updated := ev.Project.Clone()
	return &updated, nil
}
