package wallet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("So11111111111111111111111111111111111111112"))
	assert.True(t, IsValidAddress(" TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA "))
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("0OIl"))
	assert.False(t, IsValidAddress("abc"))
}

func TestParseAddressTrims(t *testing.T) {
	got, err := ParseAddress(" So11111111111111111111111111111111111111112\t")
	require.NoError(t, err)
	assert.Equal(t, solana.SolMint, got)

	resolved, err := ResolveAddress("  So11111111111111111111111111111111111111112 ")
	require.NoError(t, err)
	assert.Equal(t, solana.SolMint, resolved)

	for _, bad := range []string{"", "   ", "0OIl", "abc", base58.Encode(make([]byte, 31))} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePrivateKeyForms(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)
	key := signer.PrivateKey()

	fromB58, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), fromB58.PublicKey())

	ints := make([]string, len(key))
	for i, b := range key {
		ints[i] = fmt.Sprint(b)
	}
	fromJSON, err := ParsePrivateKey("[" + strings.Join(ints, ",") + "]")
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), fromJSON.PublicKey())

	_, err = ParsePrivateKey("")
	assert.Error(t, err)
	_, err = ParsePrivateKey("So11111111111111111111111111111111111111112")
	assert.Error(t, err)
	_, err = ParsePrivateKey("[1,2,300]")
	assert.Error(t, err)
}

func TestResolveAddress(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)

	got, err := ResolveAddress(signer.PrivateKey().String())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), got)

	got, err = ResolveAddress(signer.PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), got)

	_, err = ResolveAddress("nope")
	assert.Error(t, err)
}

func TestLocalSignVerifies(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)
	msg := []byte("launch")
	sig, err := signer.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, sig.Verify(signer.PublicKey(), msg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = signer.SignMessage(ctx, msg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSigner(t *testing.T) {
	local, err := Generate()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req signRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.PublicKey != local.PublicKey().String() {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(signResponse{Error: "unknown key"})
			return
		}
		msg, _ := base64.StdEncoding.DecodeString(req.Message)
		sig, _ := local.SignMessage(r.Context(), msg)
		_ = json.NewEncoder(w).Encode(signResponse{Signature: base58.Encode(sig[:])})
	}))
	defer srv.Close()

	remote := NewHTTPSigner(local.PublicKey(), srv.URL, srv.Client())
	msg := []byte("remote message")
	sig, err := remote.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, sig.Verify(local.PublicKey(), msg))

	other := NewHTTPSigner(solana.NewWallet().PublicKey(), srv.URL, srv.Client())
	_, err = other.SignMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
