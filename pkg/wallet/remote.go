package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

type signRequest struct {
	PublicKey string `json:"publicKey"`
	Message   string `json:"message"`
}

type signResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

// NewHTTPSigner returns a RemoteSigner that posts the base64 message to url
// and expects a base58 signature back.
func NewHTTPSigner(pub solana.PublicKey, url string, client *http.Client) RemoteSigner {
	if client == nil {
		client = http.DefaultClient
	}
	return NewRemoteSigner(pub, func(ctx context.Context, message []byte) ([]byte, error) {
		body, err := json.Marshal(signRequest{
			PublicKey: pub.String(),
			Message:   base64.StdEncoding.EncodeToString(message),
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var out signResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode signer response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("signer returned %d: %s", resp.StatusCode, out.Error)
		}
		return base58.Decode(out.Signature)
	})
}
