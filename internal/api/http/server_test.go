package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/powminer/internal/api/http/handlers"
	apiconfig "github.com/weisyn/powminer/internal/config/api"
	"github.com/weisyn/powminer/internal/core/chain"
	consensustestutil "github.com/weisyn/powminer/internal/core/consensus/testutil"
	"github.com/weisyn/powminer/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/powminer/pkg/types"
)

// fakeMiner 记录控制调用
type fakeMiner struct {
	mu        sync.Mutex
	started   []btcutil.Address
	stopped   int
	startErr  error
	stopErr   error
	state     types.MinerState
	lastError string
}

func (m *fakeMiner) StartMining(ctx context.Context, address btcutil.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, address)
	m.state = types.MinerStateActive
	return nil
}

func (m *fakeMiner) StopMining(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped++
	m.state = types.MinerStateIdle
	return nil
}

func (m *fakeMiner) GetMiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &types.MiningStatus{
		Running:   m.state == types.MinerStateActive,
		State:     m.state.String(),
		LastError: m.lastError,
	}, nil
}

// fakePool 固定接纳或拒绝交易
type fakePool struct {
	submitted []*btcutil.Tx
	err       error
}

func (p *fakePool) SubmitTx(tx *btcutil.Tx) (*types.TxDesc, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.submitted = append(p.submitted, tx)
	return &types.TxDesc{Tx: tx, Fee: 1000}, nil
}
func (p *fakePool) GetTransactionsForMining() []*types.TxDesc { return nil }
func (p *fakePool) HaveTransaction(hash chainhash.Hash) bool   { return false }
func (p *fakePool) Count() int                                 { return len(p.submitted) }

type testServer struct {
	router   *gin.Engine
	miner    *fakeMiner
	pool     *fakePool
	chain    *chain.Service
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := memory.New(time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	svc, err := chain.New(&consensustestutil.MockLogger{}, nil, &chaincfg.RegressionNetParams, store)
	require.NoError(t, err)

	ts := &testServer{
		miner:    &fakeMiner{},
		pool:     &fakePool{},
		chain:    svc,
		registry: prometheus.NewRegistry(),
	}
	ts.router = NewRouter(&consensustestutil.MockLogger{}, Dependencies{
		MinerService: ts.miner,
		TxPool:       ts.pool,
		ChainReader:  svc,
		Params:       &chaincfg.RegressionNetParams,
		Registerer:   ts.registry,
		Gatherer:     ts.registry,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, handlers.StandardAPIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var resp handlers.StandardAPIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestMiningStart_WithoutBody_UsesConfiguredAddress(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/mining/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	require.Len(t, ts.miner.started, 1)
	assert.Nil(t, ts.miner.started[0])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMiningStart_WithAddress_DecodesForNetwork(t *testing.T) {
	ts := newTestServer(t)
	address, err := btcutil.NewAddressPubKeyHash(make([]byte, 20), &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/mining/start", `{"miner_address":"`+address.EncodeAddress()+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.miner.started, 1)
	assert.Equal(t, address.EncodeAddress(), ts.miner.started[0].EncodeAddress())
}

func TestMiningStart_InvalidAddress_ReturnsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	mainnet, err := btcutil.NewAddressPubKeyHash(make([]byte, 20), &chaincfg.MainNetParams)
	require.NoError(t, err)

	for _, body := range []string{
		`{"miner_address":"not-an-address"}`,
		`{"miner_address":"` + mainnet.EncodeAddress() + `"}`,
		`{broken`,
	} {
		rec, resp := ts.do(t, http.MethodPost, "/api/v1/mining/start", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, resp.Success)
	}
	assert.Empty(t, ts.miner.started)
}

func TestMiningStart_AlreadyRunning_ReturnsConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.miner.startErr = types.ErrMinerAlreadyRunning

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/mining/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, handlers.ErrorCodeMiningAlreadyRunning, resp.Error.Code)
}

func TestMiningStop_Outcomes(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/mining/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.miner.stopped)

	ts.miner.stopErr = types.ErrMinerAlreadyStopping
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/mining/stop", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.miner.stopErr = errors.New("boom")
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/mining/stop", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMiningStatus_ReturnsSnapshot(t *testing.T) {
	ts := newTestServer(t)
	ts.miner.state = types.MinerStateActive

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/mining/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Active", data["state"])
	assert.Equal(t, true, data["running"])
}

func TestTxPoolSubmit_DecodesRawTransaction(t *testing.T) {
	ts := newTestServer(t)
	tx := consensustestutil.OpTrueSpend(wire.OutPoint{Hash: chainhash.Hash{0x01}}, 5000)
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/txpool/submit", `{"raw_tx":"`+hex.EncodeToString(buf.Bytes())+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, tx.TxHash().String(), data["txid"])
	require.Len(t, ts.pool.submitted, 1)
}

func TestTxPoolSubmit_Rejections(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/txpool/submit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/txpool/submit", `{"raw_tx":"zz"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/txpool/submit", `{"raw_tx":"0100"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.pool.err = errors.New("缺少交易输入")
	tx := consensustestutil.OpTrueSpend(wire.OutPoint{Hash: chainhash.Hash{0x01}}, 5000)
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	rec, resp := ts.do(t, http.MethodPost, "/api/v1/txpool/submit", `{"raw_tx":"`+hex.EncodeToString(buf.Bytes())+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, handlers.ErrorCodeTransactionReject, resp.Error.Code)
}

func TestBlocks_TipAndHeight(t *testing.T) {
	ts := newTestServer(t)
	genesis := ts.chain.Tip()

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/blocks/tip", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, genesis.Hash.String(), data["hash"])
	assert.Equal(t, float64(1), data["tx_count"])

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/blocks/height/0", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/blocks/height/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/blocks/height/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth_ReportsDegradedOnMinerError(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components, "chain")

	ts.miner.state = types.MinerStateError
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
}

func TestMetrics_CountsRequestsByRoute(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/v1/mining/status", "")
	ts.do(t, http.MethodGet, "/api/v1/mining/status", "")

	count, err := testutil.GatherAndCount(ts.registry, "powminer_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `powminer_api_requests_total{method="GET",path="/api/v1/mining/status",status="200"} 2`)
}

func TestServer_StartDisabled_IsNoop(t *testing.T) {
	server := &Server{
		router:  newTestServer(t).router,
		options: &apiconfig.APIOptions{Enabled: false},
		logger:  &consensustestutil.MockLogger{},
	}
	require.NoError(t, server.Start())
	require.NoError(t, server.Stop(context.Background()))
}
