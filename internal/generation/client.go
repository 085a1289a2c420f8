package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// Request is the payload sent to the curriculum generation service.
type Request struct {
	CurriculumID string   `json:"curriculum_id"`
	Title        string   `json:"title,omitempty"`
	PaperTitle   string   `json:"paper_title,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Result is the raw response of the generation service.
type Result struct {
	Success bool            `json:"success"`
	Graph   types.GraphData `json:"graph"`
}

// Client abstracts the external generation round trip. The orchestrator
// only discriminates success / upstream failure / upstream timeout.
type Client interface {
	Call(ctx context.Context, req Request) (*Result, error)
}

// HTTPClient posts JSON to the generation service with a bearer token.
// An absent token is not validated here; the call goes out and the
// service's rejection comes back as an upstream error.
type HTTPClient struct {
	endpoint string
	token    string
	hc       *http.Client
}

// NewHTTPClient builds a client for endpoint with the given call timeout.
func NewHTTPClient(endpoint, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{endpoint: endpoint, token: token, hc: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) Call(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, ErrUpstream(fmt.Sprintf("encode request: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ErrUpstream(fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, upstreamTimeoutError{}
		}
		return nil, ErrUpstream(fmt.Sprintf("generation service unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for a useful message, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, ErrUpstream(fmt.Sprintf("generation service returned %d: %s", resp.StatusCode, snippet))
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ErrUpstream(fmt.Sprintf("decode response: %v", err))
	}
	if !out.Success {
		return nil, ErrUpstream("generation service reported failure")
	}
	return &out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
