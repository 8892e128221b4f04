// Package entropy sources episode seeds. Seeds come from random.org when an
// API key is configured and fall back to crypto/rand otherwise.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// poolSize is how many seeds one random.org request fetches.
const poolSize = 100

// Client provides seeds from random.org with a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []int64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the client at a different JSON-RPC endpoint.
func (c *Client) WithEndpoint(url string) *Client {
	if c != nil {
		c.endpoint = url
	}
	return c
}

// Seed returns a non-negative seed from the pool, refilling from random.org
// when low. Falls back to crypto/rand on API failure or a nil client.
func (c *Client) Seed() int64 {
	if c == nil {
		return CryptoSeed()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 10 {
		if err := c.refill(); err != nil {
			slog.Debug("random.org refill failed", "error", err)
		}
	}
	if len(c.pool) == 0 {
		return CryptoSeed()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	APIKey string `json:"apiKey"`
	N      int    `json:"n"`
	Min    int64  `json:"min"`
	Max    int64  `json:"max"`
}

type rpcResponse struct {
	Result struct {
		Random struct {
			Data []int64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// refill tops up the pool with one generateIntegers call. Caller holds mu.
func (c *Client) refill() error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateIntegers",
		Params:  rpcParams{APIKey: c.apiKey, N: poolSize, Min: 0, Max: 1_000_000_000},
		ID:      1,
	})
	if err != nil {
		return err
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if out.Error != nil {
		return fmt.Errorf("api error: %s", out.Error.Message)
	}

	c.pool = append(c.pool, out.Result.Random.Data...)
	slog.Debug("random.org pool refilled", "count", len(out.Result.Random.Data))
	return nil
}

// CryptoSeed returns a non-negative seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Never expected; fall back to the clock.
		return time.Now().UnixNano() & (1<<62 - 1)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}
