package main

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/campaign"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/program/spltoken"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

func planProject() types.Project {
	return types.Project{
		ID:          "p1",
		Wallets:     []types.Wallet{{Address: "WalletA"}, {Address: "WalletB"}, {Address: "WalletC"}},
		UserWallets: []types.Wallet{{Address: "TeamA"}},
	}
}

func TestBuyPlanRoundTrip(t *testing.T) {
	p := planProject()
	form := campaign.BuyForm{
		Token:       "Mint111",
		Zombie:      "Zombie111",
		TokenAmount: "1,000",
		SolAmount:   "2",
		Rows: []campaign.WalletRow{
			{Checked: true, TokenAmount: "10", SolAmount: "0.5"},
			{},
			{Checked: true, TokenAmount: "20"},
		},
	}

	path := filepath.Join(t.TempDir(), "buy.yaml")
	require.NoError(t, writePlan(path, planFromForm(p, form)))

	plan, err := loadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Wallets, 3)
	assert.Equal(t, "WalletB", plan.Wallets[1].Address)

	got, err := plan.form(p)
	require.NoError(t, err)
	assert.Equal(t, form, got)
}

func TestBuyPlanMatchesAddressesIgnoringCase(t *testing.T) {
	plan := buyPlan{Wallets: []buyPlanItem{{Address: " walletc ", Checked: true, TokenAmount: "5"}}}

	form, err := plan.form(planProject())
	require.NoError(t, err)
	require.Len(t, form.Rows, 3)
	assert.False(t, form.Rows[0].Checked)
	assert.True(t, form.Rows[2].Checked)
	assert.Equal(t, "5", form.Rows[2].TokenAmount)
}

func TestBuyPlanRejectsUnknownWallet(t *testing.T) {
	plan := buyPlan{Wallets: []buyPlanItem{{Address: "Stranger", Checked: true}}}
	_, err := plan.form(planProject())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stranger")
}

func TestSellPlanForm(t *testing.T) {
	plan := sellPlan{
		Wallets:     []sellPlanItem{{Address: "WalletB", Percent: "50"}},
		TeamWallets: []sellPlanItem{{Address: "teama", Percent: "100", TransferOnSale: true}},
	}

	form, transfer, err := plan.form(planProject())
	require.NoError(t, err)
	assert.True(t, transfer)
	require.Len(t, form.Wallets, 3)
	assert.Equal(t, campaign.SellRow{Checked: true, Percent: "50"}, form.Wallets[1])
	assert.False(t, form.Wallets[0].Checked)
	require.Len(t, form.TeamWallets, 1)
	assert.True(t, form.TeamWallets[0].TransferOnSale)

	_, _, err = sellPlan{TeamWallets: []sellPlanItem{{Address: "WalletA"}}}.form(planProject())
	require.Error(t, err)
}

func TestDecodeKnownAccountMint(t *testing.T) {
	data := make([]byte, constants.MintAccountSize)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000)
	data[44] = 6
	data[45] = 1

	programs := constants.ProgramsFor(false)
	name, decoded, err := decodeKnownAccount(solana.NewWallet().PublicKey(), constants.TokenProgramID, programs, data)
	require.NoError(t, err)
	assert.Equal(t, "spltoken.Mint", name)
	mint, ok := decoded.(spltoken.Mint)
	require.True(t, ok)
	assert.EqualValues(t, 6, mint.Decimals)
	assert.EqualValues(t, 1_000_000, mint.Supply)
	assert.Nil(t, mint.MintAuthority)
}

func TestDecodeKnownAccountUnknown(t *testing.T) {
	_, _, err := decodeKnownAccount(solana.PublicKey{}, solana.SystemProgramID, constants.ProgramsFor(false), []byte{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decoder")
}
