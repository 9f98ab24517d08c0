package campaign

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
	"github.com/ninja0404/launchpad-go-sdk/pkg/wallet"
)

// ParseWalletCount reads a wallet count typed by the operator.
func ParseWalletCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, types.NewValidationError("wallet count", "invalid wallet count")
	}
	return n, nil
}

func validateKey(privateKey string) error {
	if _, err := wallet.ParsePrivateKey(privateKey); err != nil {
		return types.NewValidationError("private key", "invalid private key")
	}
	return nil
}

// updateCurrent applies set to the current project and stores the result.
func (c *Campaign) updateCurrent(project types.Project, set func(*types.Project)) types.Project {
	p := project.Clone()
	set(&p)
	c.store.UpdateProject(p)
	return p
}

// GenerateWallets asks the backend for count operation wallets. fresh
// replaces the existing ones.
func (c *Campaign) GenerateWallets(ctx context.Context, count string, fresh bool) ([]types.Wallet, error) {
	project, err := c.current()
	if err != nil {
		return nil, err
	}
	n, err := ParseWalletCount(count)
	if err != nil {
		return nil, err
	}
	wallets, err := c.api.GenerateWallets(ctx, project.ID, n, fresh)
	if err != nil {
		return nil, err
	}
	c.updateCurrent(project, func(p *types.Project) { p.Wallets = wallets })
	c.log.Info().Str("project", project.ID).Int("count", n).Bool("fresh", fresh).Int("total", len(wallets)).Msg("wallets generated")
	return wallets, nil
}

// ImportWallet adds an operation wallet by private key.
func (c *Campaign) ImportWallet(ctx context.Context, privateKey string) ([]types.Wallet, error) {
	project, err := c.current()
	if err != nil {
		return nil, err
	}
	if err := validateKey(privateKey); err != nil {
		return nil, err
	}
	wallets, err := c.api.ImportWallet(ctx, project.ID, strings.TrimSpace(privateKey))
	if err != nil {
		return nil, err
	}
	c.updateCurrent(project, func(p *types.Project) { p.Wallets = wallets })
	return wallets, nil
}

// GenerateBotWallets asks the backend for count market-making wallets.
func (c *Campaign) GenerateBotWallets(ctx context.Context, count string, fresh bool) ([]types.Wallet, error) {
	project, err := c.current()
	if err != nil {
		return nil, err
	}
	n, err := ParseWalletCount(count)
	if err != nil {
		return nil, err
	}
	wallets, err := c.api.GenerateBotWallets(ctx, project.ID, n, fresh)
	if err != nil {
		return nil, err
	}
	c.updateCurrent(project, func(p *types.Project) { p.BotWallets = wallets })
	return wallets, nil
}

// ImportDepositWallet adds a wallet funding the bot wallets.
func (c *Campaign) ImportDepositWallet(ctx context.Context, privateKey string) ([]types.Wallet, error) {
	project, err := c.current()
	if err != nil {
		return nil, err
	}
	if err := validateKey(privateKey); err != nil {
		return nil, err
	}
	wallets, err := c.api.ImportDepositWallet(ctx, project.ID, strings.TrimSpace(privateKey))
	if err != nil {
		return nil, err
	}
	c.updateCurrent(project, func(p *types.Project) { p.DepositWallets = wallets })
	return wallets, nil
}

// WalletsFileName is the name DownloadWallets writes to.
func WalletsFileName(projectName string) string {
	return "wallets_" + projectName + ".csv"
}

// DownloadWallets writes the project wallets CSV into dir and returns the
// file path and the number of data rows.
func (c *Campaign) DownloadWallets(ctx context.Context, dir string) (string, int, error) {
	project, err := c.current()
	if err != nil {
		return "", 0, err
	}
	data, err := c.api.DownloadWallets(ctx, project.ID)
	if err != nil {
		return "", 0, err
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return "", 0, fmt.Errorf("wallets csv: %w", err)
	}
	rows := len(records)
	if rows > 0 {
		rows--
	}

	path := filepath.Join(dir, WalletsFileName(project.Name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	c.log.Info().Str("file", path).Int("wallets", rows).Msg("wallets downloaded")
	return path, rows, nil
}
