package api

import (
	"context"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

type emailsResponse struct {
	Emails []types.Email `json:"emails"`
}

type signersResponse struct {
	Signers []types.JitoSigner `json:"signers"`
}

type contactsResponse struct {
	Contacts []types.ExtraWallet `json:"contacts"`
}

// LoadEmails lists the admin notification addresses.
func (c *Client) LoadEmails(ctx context.Context) ([]types.Email, error) {
	var resp emailsResponse
	if err := c.get(ctx, "misc/load-emails", &resp); err != nil {
		return nil, err
	}
	return resp.Emails, nil
}

// AddEmail adds a notification address.
func (c *Client) AddEmail(ctx context.Context, name, email string) ([]types.Email, error) {
	var resp emailsResponse
	if err := c.post(ctx, "misc/add-email", map[string]string{"name": name, "email": email}, &resp); err != nil {
		return nil, err
	}
	return resp.Emails, nil
}

// DeleteEmail removes a notification address.
func (c *Client) DeleteEmail(ctx context.Context, emailID string) ([]types.Email, error) {
	var resp emailsResponse
	if err := c.post(ctx, "misc/delete-email", map[string]string{"emailId": emailID}, &resp); err != nil {
		return nil, err
	}
	return resp.Emails, nil
}

// LoadJitoSigners lists the bundle signer keys held by the backend.
func (c *Client) LoadJitoSigners(ctx context.Context) ([]types.JitoSigner, error) {
	var resp signersResponse
	if err := c.get(ctx, "misc/load-jito-signers", &resp); err != nil {
		return nil, err
	}
	return resp.Signers, nil
}

// AddJitoSigner hands a signer private key to the backend.
func (c *Client) AddJitoSigner(ctx context.Context, privateKey string) ([]types.JitoSigner, error) {
	var resp signersResponse
	if err := c.post(ctx, "misc/add-jito-signer", map[string]string{"privateKey": privateKey}, &resp); err != nil {
		return nil, err
	}
	return resp.Signers, nil
}

// DeleteJitoSigner removes a signer by address.
func (c *Client) DeleteJitoSigner(ctx context.Context, address string) ([]types.JitoSigner, error) {
	var resp signersResponse
	if err := c.post(ctx, "misc/delete-jito-signer", map[string]string{"address": address}, &resp); err != nil {
		return nil, err
	}
	return resp.Signers, nil
}

// LoadExtraWallets lists the contact wallets.
func (c *Client) LoadExtraWallets(ctx context.Context) ([]types.ExtraWallet, error) {
	var resp contactsResponse
	if err := c.get(ctx, "misc/load-extra-wallets", &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// AddExtraWallet stores a named contact wallet.
func (c *Client) AddExtraWallet(ctx context.Context, name, privateKey string) ([]types.ExtraWallet, error) {
	var resp contactsResponse
	if err := c.post(ctx, "misc/add-extra-wallet", map[string]string{"name": name, "privateKey": privateKey}, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// DeleteExtraWallet removes a contact wallet.
func (c *Client) DeleteExtraWallet(ctx context.Context, contactID string) ([]types.ExtraWallet, error) {
	var resp contactsResponse
	if err := c.post(ctx, "misc/delete-extra-wallet", map[string]string{"contactId": contactID}, &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

type runTransactionRequest struct {
	UserID       string       `json:"userID"`
	TxType       types.TxType `json:"tx_type"`
	Transactions []string     `json:"transactions"`
}

// RunTransaction relays base64 signed transactions. The backend bundles them
// and emits txType.CompletionTag() once they land.
func (c *Client) RunTransaction(ctx context.Context, userID string, txType types.TxType, transactions []string) error {
	if len(transactions) == 0 {
		return types.ErrNoTransactions
	}
	if err := c.authed(); err != nil {
		return err
	}
	return c.post(ctx, "misc/run-transaction", runTransactionRequest{userID, txType, transactions}, nil)
}
