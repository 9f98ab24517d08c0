package rpc

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func fakeNode(t *testing.T, handler func(method string) (interface{}, int)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, status := handler(req.Method)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

func testConfig(url string) config.RPCConfig {
	cfg := config.DefaultRPCConfig()
	cfg.RPCURL = url
	cfg.RateLimit.RPS = 0
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func withContext(v interface{}) map[string]interface{} {
	return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": v}
}

func TestGetBalanceAndRent(t *testing.T) {
	srv := fakeNode(t, func(method string) (interface{}, int) {
		switch method {
		case "getBalance":
			return withContext(38_000_000), http.StatusOK
		case "getMinimumBalanceForRentExemption":
			return 1461600, http.StatusOK
		}
		return nil, http.StatusNotFound
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	bal, err := c.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal != 38_000_000 {
		t.Fatalf("balance = %d", bal)
	}
	rent, err := c.GetRentExempt(context.Background(), constants.MintAccountSize)
	if err != nil {
		t.Fatalf("rent: %v", err)
	}
	if rent != 1461600 {
		t.Fatalf("rent = %d", rent)
	}
}

func TestGetMintDecimals(t *testing.T) {
	mint := make([]byte, constants.MintAccountSize)
	binary.LittleEndian.PutUint64(mint[36:44], 1000)
	mint[44] = 6
	srv := fakeNode(t, func(method string) (interface{}, int) {
		if method != "getAccountInfo" {
			return nil, http.StatusNotFound
		}
		return withContext(map[string]interface{}{
			"data":       []string{base64.StdEncoding.EncodeToString(mint), "base64"},
			"executable": false,
			"lamports":   1461600,
			"owner":      constants.TokenProgramID.String(),
			"rentEpoch":  0,
		}), http.StatusOK
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	dec, err := c.GetMintDecimals(context.Background(), solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("decimals: %v", err)
	}
	if dec != 6 {
		t.Fatalf("decimals = %d", dec)
	}
}

func TestMissingAccountIsNotRetried(t *testing.T) {
	var calls int32
	srv := fakeNode(t, func(method string) (interface{}, int) {
		atomic.AddInt32(&calls, 1)
		return withContext(nil), http.StatusOK
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.GetAccountData(context.Background(), solana.NewWallet().PublicKey())
	if !errors.Is(err, types.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("missing account fetched %d times", n)
	}
}

func TestRetryWrapsRPCError(t *testing.T) {
	var calls int32
	srv := fakeNode(t, func(method string) (interface{}, int) {
		atomic.AddInt32(&calls, 1)
		return nil, http.StatusBadGateway
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	var rpcErr types.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T %v", err, err)
	}
	if rpcErr.Op != "getBalance" {
		t.Fatalf("op = %s", rpcErr.Op)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("attempts = %d", n)
	}
}
