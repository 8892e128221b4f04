package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.GreaterOrEqual(t, c.Seed(), int64(0))
	assert.Nil(t, NewClient(""))
}

func TestSeedFromPool(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Method string `json:"method"`
			Params struct {
				N int `json:"n"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateIntegers", req.Method)

		data := make([]int64, req.Params.N)
		for i := range data {
			data[i] = int64(i + 1)
		}
		resp := map[string]any{"result": map[string]any{"random": map[string]any{"data": data}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	require.True(t, c.Enabled())
	assert.Equal(t, int64(1), c.Seed())
	assert.Equal(t, int64(2), c.Seed())
	assert.Equal(t, int32(1), calls.Load())
}

func TestSeedFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	assert.GreaterOrEqual(t, c.Seed(), int64(0))
}
