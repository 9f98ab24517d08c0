package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// buyPlan is the YAML form of the buy page.
type buyPlan struct {
	Token       string        `yaml:"token"`
	Zombie      string        `yaml:"zombie"`
	TokenAmount string        `yaml:"token_amount"`
	SolAmount   string        `yaml:"sol_amount"`
	Wallets     []buyPlanItem `yaml:"wallets"`
}

type buyPlanItem struct {
	Address     string `yaml:"address"`
	Checked     bool   `yaml:"checked"`
	TokenAmount string `yaml:"token_amount"`
	SolAmount   string `yaml:"sol_amount"`
}

// planFromForm renders form against the wallets of p.
func planFromForm(p types.Project, form campaign.BuyForm) buyPlan {
	plan := buyPlan{
		Token:       form.Token,
		Zombie:      form.Zombie,
		TokenAmount: form.TokenAmount,
		SolAmount:   form.SolAmount,
		Wallets:     make([]buyPlanItem, len(p.Wallets)),
	}
	for i, w := range p.Wallets {
		item := buyPlanItem{Address: w.Address}
		if i < len(form.Rows) {
			item.Checked = form.Rows[i].Checked
			item.TokenAmount = form.Rows[i].TokenAmount
			item.SolAmount = form.Rows[i].SolAmount
		}
		plan.Wallets[i] = item
	}
	return plan
}

// form maps the plan onto the wallets of p by address. Wallets the plan
// does not mention stay unchecked.
func (b buyPlan) form(p types.Project) (campaign.BuyForm, error) {
	form := campaign.BuyForm{
		Token:       b.Token,
		Zombie:      b.Zombie,
		TokenAmount: b.TokenAmount,
		SolAmount:   b.SolAmount,
		Rows:        make([]campaign.WalletRow, len(p.Wallets)),
	}
	for _, item := range b.Wallets {
		i := p.WalletIndex(strings.TrimSpace(item.Address))
		if i < 0 {
			return form, fmt.Errorf("plan wallet %s is not in project %s", item.Address, p.ID)
		}
		form.Rows[i] = campaign.WalletRow{Checked: item.Checked, TokenAmount: item.TokenAmount, SolAmount: item.SolAmount}
	}
	return form, nil
}

func loadPlan(path string) (buyPlan, error) {
	var plan buyPlan
	raw, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("read plan: %w", err)
	}
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return plan, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}

func writePlan(path string, plan buyPlan) error {
	raw, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// sellPlan is the YAML form of the sell page.
type sellPlan struct {
	Wallets     []sellPlanItem `yaml:"wallets"`
	TeamWallets []sellPlanItem `yaml:"team_wallets"`
}

type sellPlanItem struct {
	Address        string `yaml:"address"`
	Percent        string `yaml:"percent"`
	TransferOnSale bool   `yaml:"transfer_on_sale"`
}

func (s sellPlan) rows(label string, wallets []types.Wallet, items []sellPlanItem) ([]campaign.SellRow, bool, error) {
	rows := make([]campaign.SellRow, len(wallets))
	transfer := false
	for _, item := range items {
		i := (types.Project{Wallets: wallets}).WalletIndex(strings.TrimSpace(item.Address))
		if i < 0 {
			return nil, false, fmt.Errorf("plan %s %s is not in the project", label, item.Address)
		}
		rows[i] = campaign.SellRow{Checked: true, Percent: item.Percent, TransferOnSale: item.TransferOnSale}
		transfer = transfer || item.TransferOnSale
	}
	return rows, transfer, nil
}

// form maps the plan onto p. transfer reports whether any row asks for a
// post-sale transfer.
func (s sellPlan) form(p types.Project) (form campaign.SellForm, transfer bool, err error) {
	var t1, t2 bool
	if form.Wallets, t1, err = s.rows("wallet", p.Wallets, s.Wallets); err != nil {
		return form, false, err
	}
	if form.TeamWallets, t2, err = s.rows("team wallet", p.UserWallets, s.TeamWallets); err != nil {
		return form, false, err
	}
	return form, t1 || t2, nil
}

func loadSellPlan(path string) (sellPlan, error) {
	var plan sellPlan
	raw, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("read plan: %w", err)
	}
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return plan, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}
