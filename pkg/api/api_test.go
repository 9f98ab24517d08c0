package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

func testClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.DefaultServerConfig()
	cfg.URL = srv.URL
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 2 * time.Millisecond
	return NewClient(cfg, opts...)
}

func TestLoginStoresToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user/login":
			var body credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body.Name)
			assert.Empty(t, r.Header.Get(HeaderUserID))
			_, _ = w.Write([]byte(`{"success":true,"accessToken":"tok-1","user":{"_id":"u1","name":"alice","role":"admin"}}`))
		case "/api/v1/project/load-all":
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "tok-1", r.Header.Get(HeaderUserID))
			_, _ = w.Write([]byte(`{"projects":[{"_id":"p1","name":"one","status":"OPEN","token":"So11111111111111111111111111111111111111112"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	_, err := c.LoadAllProjects(context.Background())
	require.ErrorIs(t, err, types.ErrNotLoggedIn)

	user, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, "tok-1", c.Token())

	projects, err := c.LoadAllProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, types.ProjectOpen, projects[0].Status)
	assert.Equal(t, "So11111111111111111111111111111111111111112", projects[0].TokenAddress())
}

func TestClientErrorIsPermanent(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid project"}`))
	}, WithToken("tok"))

	err := c.Simulate(context.Background(), SimulateRequest{ProjectID: "p1"})
	var apiErr *types.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid project", apiErr.Message)
	assert.Equal(t, "project/simulate", apiErr.Op)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int32
	var observed []int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"emails":[{"_id":"e1","name":"ops","email":"ops@example.com"}]}`))
	}, WithToken("tok"), WithObserver(func(op string, status int) {
		assert.Equal(t, "misc/load-emails", op)
		observed = append(observed, status)
	}))

	emails, err := c.LoadEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "ops@example.com", emails[0].Email)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []int{http.StatusOK}, observed)
}

func TestRunTransactionBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/misc/run-transaction", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["userID"])
		assert.Equal(t, float64(types.TxBurnToken), body["tx_type"])
		assert.Equal(t, []interface{}{"AAA=", "BBB="}, body["transactions"])
		_, _ = w.Write([]byte(`{}`))
	}, WithToken("tok"))

	require.ErrorIs(t, c.RunTransaction(context.Background(), "u1", types.TxBurnToken, nil), types.ErrNoTransactions)
	require.NoError(t, c.RunTransaction(context.Background(), "u1", types.TxBurnToken, []string{"AAA=", "BBB="}))
}

func TestCreateAndCheckProject(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/project/create":
			_, _ = w.Write([]byte(`{"project":{"_id":"p9","depositWallet":{"address":"dep"}},"expireTime":1800}`))
		case "/api/v1/project/check-status":
			_, _ = w.Write([]byte(`{"success":false,"expired":false,"expireTime":"1799"}`))
		}
	}, WithToken("tok"))

	np, err := c.CreateProject(context.Background(), "launch")
	require.NoError(t, err)
	assert.Equal(t, NewProject{ProjectID: "p9", DepositWallet: "dep", ExpireTime: 1800}, np)

	st, err := c.CheckStatus(context.Background(), "p9")
	require.NoError(t, err)
	assert.False(t, st.Activated)
	assert.Equal(t, int64(1799), st.ExpireTime)
}

func TestAmountsAreSentAsNumbers(t *testing.T) {
	bodies := map[string]string{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies[r.URL.Path] = string(raw)
		_, _ = w.Write([]byte(`{"project":{"_id":"p1"}}`))
	}, WithToken("tok"))
	ctx := context.Background()

	require.NoError(t, c.Simulate(ctx, SimulateRequest{
		ProjectID: "p1",
		Wallets:   []WalletPlan{{Address: "a", InitialTokenAmount: "1000", InitialSolAmount: "0.5"}},
	}))
	assert.Contains(t, bodies["/api/v1/project/simulate"], `{"address":"a","initialTokenAmount":1000,"initialSolAmount":0.5}`)

	require.NoError(t, c.Sell(ctx, SellRequest{ProjectID: "p1", Wallets: []SellWallet{{Address: "a", Percentage: "50"}}}))
	assert.Contains(t, bodies["/api/v1/project/sell"], `"percentage":50`)

	_, err := c.SaveProject(ctx, SaveRequest{ProjectID: "p1", Wallets: []WalletDraft{{Address: "a", InitialTokenAmount: "1,000"}}})
	require.NoError(t, err)
	assert.Contains(t, bodies["/api/v1/project/save"], `"initialTokenAmount":"1,000"`)
}

func TestImportDepositWallet(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body importRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret", body.PrivateKey)
		_, _ = w.Write([]byte(`{"project":{"_id":"p1","depositeWallets":[{"address":"d1"}]}}`))
	}, WithToken("tok"))

	wallets, err := c.ImportDepositWallet(context.Background(), "p1", "secret")
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "d1", wallets[0].Address)
}

func TestLogoutClearsToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithToken("tok"))
	c.retry.MaxAttempts = 1

	assert.Error(t, c.Logout(context.Background()))
	assert.False(t, c.LoggedIn())
}

func TestTokenStore(t *testing.T) {
	store := TokenStore{Path: filepath.Join(t.TempDir(), "nested", "token")}
	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.Save("abc"))
	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, ok, err := store.LoadUser()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.SaveUser(types.User{ID: "u1", Name: "alice", Role: types.RoleAdmin}))
	u, ok, err := store.LoadUser()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, u.IsAdmin())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, ok, err = store.LoadUser()
	require.NoError(t, err)
	assert.False(t, ok)
}
