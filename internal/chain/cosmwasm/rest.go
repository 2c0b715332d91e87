package cosmwasm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrz1836/lendkit/internal/chain"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

const (
	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody is the maximum response body size to read (4 MB).
	maxResponseBody = 4 << 20
)

// Route names used for rate limiting and metrics.
const (
	RouteSmart     = "smart"
	RouteAccount   = "account"
	RouteSimulate  = "simulate"
	RouteBroadcast = "broadcast"
	RouteTx        = "tx"
	RouteStatus    = "status"
)

// Recorder observes every node request. It is satisfied by the metrics package.
type Recorder interface {
	ObserveRequest(route string, elapsed time.Duration, err error)
}

// NodeError is a non-2xx response from a node, carrying the gRPC-gateway error body when present.
type NodeError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *NodeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("node returned HTTP %d: %s", e.Status, e.Message)
}

// missingContract holds wasmd's wordings for an address with no contract behind it.
//
//nolint:gochecknoglobals // read-only lookup table
var missingContract = []string{"no such contract", "contract: not found", "contract not found"}

// IsNotFound reports whether err is a node "not found" response, either an HTTP 404
// or a contract query that failed because the requested record does not exist.
// A query against an address with no contract is not a missing record.
func IsNotFound(err error) bool {
	var ne *NodeError
	if !lenderr.As(err, &ne) {
		return false
	}
	msg := strings.ToLower(ne.Message)
	for _, m := range missingContract {
		if strings.Contains(msg, m) {
			return false
		}
	}
	return ne.Status == http.StatusNotFound || strings.Contains(msg, "not found")
}

// restClient performs rate-limited JSON calls against one base URL.
type restClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
	recorder    Recorder
}

func newRESTClient(baseURL string, httpClient *http.Client, limiter *chain.RateLimiter, rec Recorder) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: httpTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}
	if limiter == nil {
		limiter = chain.DefaultRateLimiter()
	}
	return &restClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		rateLimiter: limiter,
		recorder:    rec,
	}
}

func (c *restClient) get(ctx context.Context, route, path string, out any) error {
	return c.do(ctx, route, http.MethodGet, path, nil, out)
}

func (c *restClient) post(ctx context.Context, route, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, route, http.MethodPost, path, payload, out)
}

func (c *restClient) do(ctx context.Context, route, method, path string, payload []byte, out any) (err error) {
	if c.recorder != nil {
		start := time.Now()
		defer func() { c.recorder.ObserveRequest(route, time.Since(start), err) }()
	}

	if err = c.rateLimiter.Wait(ctx, route); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G107: URL is built from configured endpoints
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return chain.WrapRetryable(lenderr.WithCause(lenderr.ErrNetworkError, err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return lenderr.WithDetails(chain.ErrRateLimited, map[string]string{
			"retry_after": chain.ParseRetryAfter(resp.Header.Get("Retry-After")).String(),
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		nodeErr := &NodeError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, nodeErr); jsonErr != nil || nodeErr.Message == "" {
			nodeErr.Message = truncateBody(strings.TrimSpace(string(data)), 512)
		}
		if resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusInternalServerError {
			// 502/503/504 are gateway hiccups; 500 carries contract and ABCI errors
			return chain.WrapRetryable(nodeErr)
		}
		return nodeErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// truncateBody truncates a string to maxLen characters.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
