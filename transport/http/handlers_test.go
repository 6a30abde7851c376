package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smartwallet "github.com/layer-3/smartwallet"
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/sdk"
	"github.com/layer-3/smartwallet/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	svc    *service.WalletService
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc, err := smartwallet.NewLocal(context.Background(), smartwallet.LocalOptions{})
	require.NoError(t, err)
	return &testServer{t: t, svc: svc, router: SetupRouter(svc)}
}

func (s *testServer) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin() map[string]string {
	s.t.Helper()
	token, err := s.svc.IssueAdminToken("test")
	require.NoError(s.t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type walletResponse struct {
	Address     core.Address `json:"address"`
	ID          uint64       `json:"id"`
	RuleProgram core.Address `json:"rule_program"`
	Lamports    uint64       `json:"lamports"`
	Balance     string       `json:"balance"`
}

func TestWalletLifecycle(t *testing.T) {
	s := newTestServer(t)
	pk, err := sdk.GeneratePasskey(nil)
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/wallets", gin.H{"passkey": pk.PublicKey()}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[walletResponse](t, w)
	assert.Equal(t, core.DefaultRuleID, created.RuleProgram)
	wallet := created.Address.String()

	w = s.do(http.MethodPost, "/admin/airdrop", gin.H{"address": created.Address, "lamports": core.LamportsPerSOL}, s.admin())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/wallets/"+wallet, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[walletResponse](t, w)
	assert.Equal(t, uint64(core.LamportsPerSOL)+890880, info.Lamports)
	assert.Equal(t, "1.00089088", info.Balance)

	dest := core.Address{0xd0}
	w = s.do(http.MethodPost, "/wallets/"+wallet+"/transfers", gin.H{
		"passkey":  pk.PublicKey(),
		"to":       dest,
		"lamports": 1234,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prepared := decode[PreparedAction](t, w)
	assert.Equal(t, "execute_cpi", prepared.Request.Action)
	assert.Equal(t, uint64(0), prepared.Message.Nonce)

	sig, err := pk.Sign(prepared.Message.Bytes)
	require.NoError(t, err)
	execute := ExecuteRequest{ActionJSON: prepared.Request, Message: prepared.Message.Bytes, Signature: sig}

	w = s.do(http.MethodPost, "/wallets/"+wallet+"/execute", execute, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[struct {
		Nonce uint64 `json:"nonce"`
		Fee   uint64 `json:"fee"`
	}](t, w)
	assert.Equal(t, uint64(1), result.Nonce)

	balance, err := s.svc.Balance(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), balance)

	// replaying the same signed request is an engine error with its code
	w = s.do(http.MethodPost, "/wallets/"+wallet+"/execute", execute, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Code int    `json:"code"`
		Name string `json:"name"`
	}](t, w)
	assert.Equal(t, 6007, body.Code)
	assert.Equal(t, "InvalidNonce", body.Name)

	w = s.do(http.MethodGet, "/wallets/"+wallet+"/authenticators/"+pk.PublicKey().String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	auth := decode[struct {
		Nonce uint64 `json:"nonce"`
	}](t, w)
	assert.Equal(t, uint64(1), auth.Nonce)
}

func TestSignatureMismatchIsRejected(t *testing.T) {
	s := newTestServer(t)
	pk, err := sdk.GeneratePasskey(nil)
	require.NoError(t, err)
	other, err := sdk.GeneratePasskey(nil)
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/wallets", gin.H{"passkey": pk.PublicKey()}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	wallet := decode[walletResponse](t, w).Address.String()

	w = s.do(http.MethodPost, "/wallets/"+wallet+"/transfers", gin.H{
		"passkey":  pk.PublicKey(),
		"to":       core.Address{0xd0},
		"lamports": 1,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	prepared := decode[PreparedAction](t, w)

	sig, err := other.Sign(prepared.Message.Bytes)
	require.NoError(t, err)
	w = s.do(http.MethodPost, "/wallets/"+wallet+"/execute",
		ExecuteRequest{ActionJSON: prepared.Request, Message: prepared.Message.Bytes, Signature: sig}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestNotFoundAndBadInput(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/wallets/"+core.Address{1}.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/wallets/not-base58!", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/wallets", gin.H{"passkey": "zz"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/wallets/"+core.Address{1}.String()+"/message", gin.H{
		"passkey": core.Passkey{0x02},
		"action":  "teleport",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"program": core.Address{0xab}}

	w := s.do(http.MethodPost, "/admin/rule-programs", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/admin/rule-programs", body, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/admin/rule-programs", body, s.admin())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	listed := decode[struct {
		Programs []core.Address `json:"programs"`
	}](t, w)
	assert.Equal(t, []core.Address{core.DefaultRuleID, core.TransferLimitID, {0xab}}, listed.Programs)

	w = s.do(http.MethodGet, "/rule-programs", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
