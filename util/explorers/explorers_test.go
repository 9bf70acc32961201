package explorers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

func TestEtherscanVerifiedContract(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "getsourcecode", r.URL.Query().Get("action"))
		assert.Equal(t, "1", r.URL.Query().Get("chainid"))
		assert.Equal(t, "key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"status":"1","message":"OK","result":[{"SourceCode":"pragma solidity =0.6.6;","ContractName":"UniswapV2Router02","ABI":"[]"}]}`))
	}))
	defer srv.Close()

	ee := NewEtherscanLikeExplorer(srv.URL, 1, "key")
	source, err := ee.ContractSource(context.Background(), router)
	require.NoError(t, err)
	assert.Equal(t, ContractSource{Name: "UniswapV2Router02", Verified: true}, source)

	_, err = ee.ContractSource(context.Background(), router)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second lookup is served from cache")
}

func TestEtherscanUnverifiedContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"1","message":"OK","result":[{"SourceCode":"","ContractName":"","ABI":"Contract source code not verified"}]}`))
	}))
	defer srv.Close()

	source, err := NewEtherscanLikeExplorer(srv.URL, 1, "key").ContractSource(context.Background(), router)
	require.NoError(t, err)
	assert.False(t, source.Verified)
	assert.Empty(t, source.Name)
}

func TestEtherscanErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer srv.Close()

	_, err := NewEtherscanLikeExplorer(srv.URL, 1, "key").ContractSource(context.Background(), router)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Max rate limit reached")

	_, err = NewEtherscanLikeExplorer(srv.URL, 1, "").ContractSource(context.Background(), router)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBlockscoutContractSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/smart-contracts/"+router.Hex() {
			w.Write([]byte(`{"is_verified":true,"name":"SwapRouter"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	be := NewBlockscoutExplorer(srv.URL + "/")
	source, err := be.ContractSource(context.Background(), router)
	require.NoError(t, err)
	assert.Equal(t, ContractSource{Name: "SwapRouter", Verified: true}, source)

	other, err := be.ContractSource(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.False(t, other.Verified)
}
