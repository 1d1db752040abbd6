package minting_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/adapter/minting"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
)

func TestDeployCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Summer Concert", body["name"])
		assert.EqualValues(t, 3, body["totalSupply"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contractAddress":"0xabc"}`))
	}))
	defer srv.Close()

	client, err := minting.NewGatewayClient(srv.URL+"/", time.Second, zap.NewNop())
	require.NoError(t, err)

	addr, err := client.DeployCollection(context.Background(), "Summer Concert", 3)

	require.NoError(t, err)
	assert.Equal(t, "0xabc", addr)
}

func TestMintUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/0xabc/tokens", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ipfs://art", body["imageRef"])
		assert.EqualValues(t, 4, body["tokenIndex"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := minting.NewGatewayClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	err = client.MintUnit(context.Background(), ports.MintRequest{
		ContractAddress: "0xabc",
		ImageRef:        "ipfs://art",
		Name:            "Summer Concert",
		TokenIndex:      4,
	})

	assert.NoError(t, err)
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chain congested", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := minting.NewGatewayClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	err = client.MintUnit(context.Background(), ports.MintRequest{ContractAddress: "0xabc"})

	var statusErr *minting.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "chain congested", statusErr.Body)
}

func TestNewGatewayClient_RequiresURL(t *testing.T) {
	_, err := minting.NewGatewayClient("", time.Second, zap.NewNop())
	assert.Error(t, err)
}
