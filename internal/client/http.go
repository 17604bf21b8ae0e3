// Package client implements the engine transports used by the session driver.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/wire"
)

var errNoContent = errors.New("no content")

// HTTPEngine talks to the engine server over its JSON API.
type HTTPEngine struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ session.Engine = (*HTTPEngine)(nil)

// NewHTTPEngine creates an HTTP engine client for baseURL.
func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Initialize implements session.Engine.
func (e *HTTPEngine) Initialize(ctx context.Context, length int, first byte) (session.EngineSession, wire.EngineState, error) {
	var resp wire.NewHashResponse
	err := e.do(ctx, http.MethodPost, "/v1/hashes", "", wire.NewHashRequest{DataLength: length, Byte: &first}, &resp)
	if err != nil {
		return nil, wire.EngineState{}, err
	}
	if resp.Token == "" {
		return nil, wire.EngineState{}, errors.New("server returned no session token")
	}
	return &httpSession{engine: e, token: resp.Token}, resp.EngineState, nil
}

type httpSession struct {
	engine *HTTPEngine
	token  string
}

// Advance implements session.EngineSession. A 204 reply yields a nil state.
func (s *httpSession) Advance(ctx context.Context, index int, b byte) (*wire.EngineState, error) {
	var st wire.EngineState
	err := s.engine.do(ctx, http.MethodPost, "/v1/hashes/step", s.token, wire.NewStepRequest(index, b), &st)
	if errors.Is(err, errNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Close implements session.EngineSession by discarding the server session.
func (s *httpSession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.engine.do(ctx, http.MethodDelete, "/v1/hashes/current", s.token, nil, nil)
	if errors.Is(err, errNoContent) {
		return nil
	}
	return err
}

// do sends a JSON request and decodes a JSON reply into out. It returns
// errNoContent for 204 replies and for a literal null body.
func (e *HTTPEngine) do(ctx context.Context, method, endpoint, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return errNoContent
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp wire.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, preview(respBody, 200))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "json") {
		return fmt.Errorf("unexpected content type %q (expected JSON): %s", contentType, preview(respBody, 100))
	}
	if out == nil {
		return nil
	}
	if trimmed := bytes.TrimSpace(respBody); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errNoContent
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w (response: %s)", err, preview(respBody, 100))
	}
	return nil
}

// preview truncates a body for error messages.
func preview(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}
