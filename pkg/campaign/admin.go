package campaign

import (
	"context"
	"strings"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// Admin manages the backend-wide resources: users, notification emails,
// bundle signers and extra wallets. Every call keeps the store in sync
// with the list the backend returns.
type Admin struct {
	c *Campaign
}

// NewAdmin creates an Admin on c.
func NewAdmin(c *Campaign) *Admin {
	return &Admin{c: c}
}

func (a *Admin) Users(ctx context.Context) ([]types.User, error) {
	users, err := a.c.api.LoadAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	a.c.store.SetUsers(users)
	return users, nil
}

func (a *Admin) DeleteUser(ctx context.Context, userID string) ([]types.User, error) {
	users, err := a.c.api.DeleteUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.c.store.SetUsers(users)
	return users, nil
}

func (a *Admin) Emails(ctx context.Context) ([]types.Email, error) {
	emails, err := a.c.api.LoadEmails(ctx)
	if err != nil {
		return nil, err
	}
	a.c.store.SetEmails(emails)
	return emails, nil
}

// AddEmail registers a notification address.
func (a *Admin) AddEmail(ctx context.Context, name, email string) ([]types.Email, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, types.NewValidationError("email", "invalid email address")
	}
	emails, err := a.c.api.AddEmail(ctx, strings.TrimSpace(name), email)
	if err != nil {
		return nil, err
	}
	a.c.store.SetEmails(emails)
	return emails, nil
}

func (a *Admin) DeleteEmail(ctx context.Context, emailID string) ([]types.Email, error) {
	emails, err := a.c.api.DeleteEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	a.c.store.SetEmails(emails)
	return emails, nil
}

func (a *Admin) JitoSigners(ctx context.Context) ([]types.JitoSigner, error) {
	signers, err := a.c.api.LoadJitoSigners(ctx)
	if err != nil {
		return nil, err
	}
	a.c.store.SetJitoSigners(signers)
	return signers, nil
}

// AddJitoSigner registers a bundle signing key.
func (a *Admin) AddJitoSigner(ctx context.Context, privateKey string) ([]types.JitoSigner, error) {
	if err := validateKey(privateKey); err != nil {
		return nil, err
	}
	signers, err := a.c.api.AddJitoSigner(ctx, strings.TrimSpace(privateKey))
	if err != nil {
		return nil, err
	}
	a.c.store.SetJitoSigners(signers)
	return signers, nil
}

func (a *Admin) DeleteJitoSigner(ctx context.Context, address string) ([]types.JitoSigner, error) {
	signers, err := a.c.api.DeleteJitoSigner(ctx, address)
	if err != nil {
		return nil, err
	}
	a.c.store.SetJitoSigners(signers)
	return signers, nil
}

func (a *Admin) ExtraWallets(ctx context.Context) ([]types.ExtraWallet, error) {
	wallets, err := a.c.api.LoadExtraWallets(ctx)
	if err != nil {
		return nil, err
	}
	a.c.store.SetExtraWallets(wallets)
	return wallets, nil
}

// AddExtraWallet stores a named contact wallet by private key.
func (a *Admin) AddExtraWallet(ctx context.Context, name, privateKey string) ([]types.ExtraWallet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, types.NewValidationError("name", "is required")
	}
	if err := validateKey(privateKey); err != nil {
		return nil, err
	}
	wallets, err := a.c.api.AddExtraWallet(ctx, strings.TrimSpace(name), strings.TrimSpace(privateKey))
	if err != nil {
		return nil, err
	}
	a.c.store.SetExtraWallets(wallets)
	return wallets, nil
}

func (a *Admin) DeleteExtraWallet(ctx context.Context, contactID string) ([]types.ExtraWallet, error) {
	wallets, err := a.c.api.DeleteExtraWallet(ctx, contactID)
	if err != nil {
		return nil, err
	}
	a.c.store.SetExtraWallets(wallets)
	return wallets, nil
}
