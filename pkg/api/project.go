package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

type projectIDRequest struct {
	ProjectID string `json:"projectId"`
}

type projectResponse struct {
	Project types.Project `json:"project"`
}

type projectsResponse struct {
	Projects []types.Project `json:"projects"`
}

// NewProject is the answer to project/create.
type NewProject struct {
	ProjectID     string
	DepositWallet string
	ExpireTime    int64
}

// ProjectStatus is the answer to project/check-status.
type ProjectStatus struct {
	Activated  bool
	Expired    bool
	ExpireTime int64
}

// CreateProject opens a project in INIT state awaiting payment.
func (c *Client) CreateProject(ctx context.Context, name string) (NewProject, error) {
	if name == "" {
		return NewProject{}, types.NewValidationError("name", "is required")
	}
	if err := c.authed(); err != nil {
		return NewProject{}, err
	}
	var resp struct {
		Project struct {
			ID            string               `json:"_id"`
			DepositWallet *types.DepositWallet `json:"depositWallet"`
		} `json:"project"`
		ExpireTime types.FlexString `json:"expireTime"`
	}
	if err := c.post(ctx, "project/create", map[string]string{"name": name}, &resp); err != nil {
		return NewProject{}, err
	}
	out := NewProject{ProjectID: resp.Project.ID, ExpireTime: parseInt(resp.ExpireTime)}
	if resp.Project.DepositWallet != nil {
		out.DepositWallet = resp.Project.DepositWallet.Address
	}
	return out, nil
}

// CheckStatus reports whether the project payment was received.
func (c *Client) CheckStatus(ctx context.Context, projectID string) (ProjectStatus, error) {
	var resp struct {
		Success    bool             `json:"success"`
		Expired    bool             `json:"expired"`
		ExpireTime types.FlexString `json:"expireTime"`
	}
	if err := c.post(ctx, "project/check-status", projectIDRequest{projectID}, &resp); err != nil {
		return ProjectStatus{}, err
	}
	return ProjectStatus{Activated: resp.Success, Expired: resp.Expired, ExpireTime: parseInt(resp.ExpireTime)}, nil
}

// LoadAllProjects lists the projects visible to the user.
func (c *Client) LoadAllProjects(ctx context.Context) ([]types.Project, error) {
	if err := c.authed(); err != nil {
		return nil, err
	}
	var resp projectsResponse
	if err := c.get(ctx, "project/load-all", &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// ActivateProject marks a project paid (admin only) and returns all projects.
func (c *Client) ActivateProject(ctx context.Context, projectID string) ([]types.Project, error) {
	var resp projectsResponse
	if err := c.post(ctx, "project/activate", projectIDRequest{projectID}, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// DeleteProject removes a project and returns the remaining ones.
func (c *Client) DeleteProject(ctx context.Context, projectID string) ([]types.Project, error) {
	var resp projectsResponse
	if err := c.post(ctx, "project/delete", projectIDRequest{projectID}, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// WalletPlan is a planned per-wallet buy. Amounts go over the wire as
// JSON numbers.
type WalletPlan struct {
	Address            string      `json:"address"`
	InitialTokenAmount json.Number `json:"initialTokenAmount"`
	InitialSolAmount   json.Number `json:"initialSolAmount"`
}

// WalletDraft is a per-wallet row of a saved buy form. The amounts are kept
// as typed by the operator.
type WalletDraft struct {
	Address            string `json:"address"`
	InitialTokenAmount string `json:"initialTokenAmount"`
	InitialSolAmount   string `json:"initialSolAmount"`
}

// ZombieKey is the disperse wallet as sent by the operator.
type ZombieKey struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey,omitempty"`
}

// SaveRequest persists the buy form of a project.
type SaveRequest struct {
	ProjectID string        `json:"projectId"`
	Token     string        `json:"token"`
	Zombie    ZombieKey     `json:"zombie"`
	Wallets   []WalletDraft `json:"wallets"`
}

// SaveProject stores the buy form and returns the updated project.
func (c *Client) SaveProject(ctx context.Context, req SaveRequest) (types.Project, error) {
	var resp projectResponse
	if err := c.post(ctx, "project/save", req, &resp); err != nil {
		return types.Project{}, err
	}
	return resp.Project, nil
}

// SimulateRequest asks the backend to dry-run a launch buy.
type SimulateRequest struct {
	ProjectID   string       `json:"projectId"`
	Token       string       `json:"token"`
	TokenAmount string       `json:"tokenAmount"`
	SolAmount   string       `json:"solAmount"`
	Zombie      ZombieKey    `json:"zombie"`
	Wallets     []WalletPlan `json:"wallets"`
}

// Simulate starts a simulation. The result arrives as SIMULATE_COMPLETED.
func (c *Client) Simulate(ctx context.Context, req SimulateRequest) error {
	return c.post(ctx, "project/simulate", req, nil)
}

// Disperse funds the wallets of a simulation. Completion arrives as
// DISPERSE_COMPLETED.
func (c *Client) Disperse(ctx context.Context, sim *types.SimulationResult) error {
	return c.post(ctx, "project/disperse", map[string]interface{}{"simulateData": sim}, nil)
}

// Buy enables the pool and buys per the simulation. Completion arrives as
// BUY_COMPLETED or BUY_SMALL_TOKEN.
func (c *Client) Buy(ctx context.Context, projectID string, sim *types.SimulationResult) error {
	return c.post(ctx, "project/buy", map[string]interface{}{"projectId": projectID, "simulateData": sim}, nil)
}

// SellWallet is one wallet of a sell order.
type SellWallet struct {
	Address        string      `json:"address"`
	Percentage     json.Number `json:"percentage"`
	TransferOnSale bool        `json:"transferOnSale"`
}

// SellRequest sells from project and team wallets.
type SellRequest struct {
	ProjectID   string          `json:"projectId"`
	Token       string          `json:"token"`
	PoolInfo    *types.PoolKeys `json:"poolInfo"`
	Wallets     []SellWallet    `json:"wallets"`
	UserWallets []SellWallet    `json:"userWallets"`
}

// Sell starts a sale. Completion arrives as SELL_COMPLETED.
func (c *Client) Sell(ctx context.Context, req SellRequest) error {
	return c.post(ctx, "project/sell", req, nil)
}

// CollectRequest sweeps SOL from wallets to a target.
type CollectRequest struct {
	ProjectID    string   `json:"projectId"`
	TargetWallet string   `json:"targetWallet"`
	Wallets      []string `json:"wallets"`
	UserWallets  []string `json:"userWallets"`
}

// CollectAllSOL starts a sweep. Completion arrives as COLLECT_ALL_SOL.
func (c *Client) CollectAllSOL(ctx context.Context, req CollectRequest) error {
	return c.post(ctx, "project/collect-all-sol", req, nil)
}

// CollectFee sweeps accumulated fees (admin). Completion arrives as
// COLLECT_ALL_FEE.
func (c *Client) CollectFee(ctx context.Context, target string) error {
	return c.post(ctx, "project/collect-fee", map[string]string{"targetWallet": target}, nil)
}

// DownloadWallets returns the project wallets as CSV.
func (c *Client) DownloadWallets(ctx context.Context, projectID string) ([]byte, error) {
	return c.doRaw(ctx, "project/download-wallets", http.MethodPost, projectIDRequest{projectID})
}

type generateRequest struct {
	ProjectID string `json:"projectId"`
	Count     int    `json:"count"`
	Fresh     bool   `json:"fresh"`
}

type importRequest struct {
	ProjectID  string `json:"projectId"`
	PrivateKey string `json:"prKey"`
}

// GenerateWallets creates count operation wallets and returns the new list.
func (c *Client) GenerateWallets(ctx context.Context, projectID string, count int, fresh bool) ([]types.Wallet, error) {
	var resp projectResponse
	if err := c.post(ctx, "project/generate-wallets", generateRequest{projectID, count, fresh}, &resp); err != nil {
		return nil, err
	}
	return resp.Project.Wallets, nil
}

// ImportWallet adds an operation wallet by private key.
func (c *Client) ImportWallet(ctx context.Context, projectID, privateKey string) ([]types.Wallet, error) {
	var resp projectResponse
	if err := c.post(ctx, "project/import-wallet", importRequest{projectID, privateKey}, &resp); err != nil {
		return nil, err
	}
	return resp.Project.Wallets, nil
}

// GenerateBotWallets creates count market-making wallets.
func (c *Client) GenerateBotWallets(ctx context.Context, projectID string, count int, fresh bool) ([]types.Wallet, error) {
	var resp projectResponse
	if err := c.post(ctx, "project/generate-bot-wallets", generateRequest{projectID, count, fresh}, &resp); err != nil {
		return nil, err
	}
	return resp.Project.BotWallets, nil
}

// ImportDepositWallet adds a bot deposit wallet by private key.
func (c *Client) ImportDepositWallet(ctx context.Context, projectID, privateKey string) ([]types.Wallet, error) {
	var resp projectResponse
	if err := c.post(ctx, "project/import-deposite-wallet", importRequest{projectID, privateKey}, &resp); err != nil {
		return nil, err
	}
	return resp.Project.DepositWallets, nil
}

func parseInt(s types.FlexString) int64 {
	n := json.Number(s)
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}
