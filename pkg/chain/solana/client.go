// Package solana reads on-chain balances over the public JSON-RPC API. The
// client is read-only: it never signs or submits transactions.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	defaultRPCURL           = "https://api.mainnet-beta.solana.com"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond
	defaultCommitment       = "confirmed"
)

// TokenProgramID is the SPL token program whose accounts carry fungible
// balances.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// ErrAccountNotFound indicates the RPC node knows nothing about the address.
var ErrAccountNotFound = errors.New("solana: account not found")

// Client wraps access to a Solana JSON-RPC endpoint.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	maxRetries int
	commitment string
	logger     *log.Logger
	nextID     atomic.Int64
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRPCURL overrides the default mainnet endpoint.
func WithRPCURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.rpcURL = url
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithCommitment sets the commitment level sent with every query.
func WithCommitment(level string) Option {
	return func(c *Client) {
		if level != "" {
			c.commitment = level
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a Solana RPC client.
func NewClient(opts ...Option) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &Client{
		rpcURL:     defaultRPCURL,
		httpClient: httpClient,
		maxRetries: defaultMaxRetries,
		commitment: defaultCommitment,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpClient
	}
	if client.logger == nil {
		client.logger = log.Default()
	}
	return client
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("solana: rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call posts one JSON-RPC request and decodes the result field. Transport
// failures and 5xx statuses are retried with doubling backoff; RPC-level
// errors are returned as-is since retrying them changes nothing.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana: encode request: %w", err)
	}

	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("solana: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("solana: read response: %w", readErr)
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("solana: http status %d: %s", resp.StatusCode, string(body))
			} else {
				var envelope rpcResponse
				if err := json.Unmarshal(body, &envelope); err != nil {
					return fmt.Errorf("solana: decode response: %w", err)
				}
				if envelope.Error != nil {
					return envelope.Error
				}
				if result != nil {
					if err := json.Unmarshal(envelope.Result, result); err != nil {
						return fmt.Errorf("solana: decode %s result: %w", method, err)
					}
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("solana: %s failed without error detail", method)
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
