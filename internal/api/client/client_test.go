package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/powminer/internal/api/http/handlers"
	"github.com/weisyn/powminer/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestStartMining_SendsAddressOnlyWhenSet(t *testing.T) {
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/mining/start", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		writeJSON(w, http.StatusOK, handlers.StandardAPIResponse{Success: true})
	})

	require.NoError(t, c.StartMining(context.Background(), ""))
	require.NoError(t, c.StartMining(context.Background(), "bcrt1qexample"))

	require.Len(t, bodies, 2)
	assert.Empty(t, bodies[0])
	assert.JSONEq(t, `{"miner_address":"bcrt1qexample"}`, bodies[1])
}

func TestMiningStatus_DecodesData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, handlers.StandardAPIResponse{
			Success: true,
			Data:    types.MiningStatus{Running: true, State: "Active", Height: 7, HashRate: 1234},
		})
	})

	status, err := c.MiningStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, uint32(7), status.Height)
	assert.Equal(t, uint64(1234), status.HashRate)
}

func TestStopMining_ConflictBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, handlers.StandardAPIResponse{
			Success: false,
			Error:   &handlers.APIError{Code: handlers.ErrorCodeMiningAlreadyStopping, Message: "挖矿正在停止"},
		})
	})

	err := c.StopMining(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, handlers.ErrorCodeMiningAlreadyStopping, apiErr.Code)
}

func TestTip_NonJSONResponse_ReturnsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Tip(context.Background())

	assert.ErrorContains(t, err, "502")
}
