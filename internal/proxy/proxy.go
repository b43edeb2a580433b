package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/modelrelay/modelrelay/pkg/types"
)

const defaultBaseURL = "https://api.deepseek.com/v1"

// upstreamTimeout is deliberately generous; reasoning models can take
// several minutes on a single completion.
const upstreamTimeout = 300 * time.Second

// UpstreamError carries the upstream's status code and extracted error
// message so the caller-facing envelope can mirror them.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: status=%d message=%s", e.StatusCode, e.Message)
}

// Client issues chat-completion calls against the single upstream API and
// translates the responses. The settings store is consulted live so an admin
// change takes effect for events still in flight.
type Client struct {
	baseURL  string
	apiKey   string
	settings *settings.Store
	client   *http.Client
}

func NewClient(baseURL, apiKey string, st *settings.Store) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if st == nil {
		st = settings.NewStore()
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		settings: st,
		client:   &http.Client{Timeout: upstreamTimeout},
	}
}

// ChatCompletion performs a buffered upstream call and returns the parsed
// upstream reply, which still carries reasoning_content for the translator.
func (c *Client) ChatCompletion(ctx context.Context, body map[string]interface{}) (*types.UpstreamResponse, error) {
	resp, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chat completions: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    extractUpstreamMessage(content),
		}
	}

	var parsed types.UpstreamResponse
	if err := json.Unmarshal(content, &parsed); err != nil {
		return nil, fmt.Errorf("chat completions: decode response: %w", err)
	}
	return &parsed, nil
}

// ChatCompletionStream performs a streaming upstream call. Each channel
// element is one translated SSE payload, already in "data: ...\n\n" form,
// emitted strictly in upstream arrival order. The channel closes when the
// upstream stream ends, errors, or ctx is done.
func (c *Client) ChatCompletionStream(ctx context.Context, body map[string]interface{}) (<-chan []byte, error) {
	resp, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		content, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    extractUpstreamMessage(content),
		}
	}

	out := make(chan []byte, 32)
	go c.translateSSE(ctx, resp.Body, out)
	return out, nil
}

func (c *Client) send(ctx context.Context, body map[string]interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("chat completions: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("chat completions: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions: send request: %w", err)
	}
	return resp, nil
}

// translateSSE drives a LineBuffer over the upstream body and rewrites each
// completed line. Lines that are not data frames, and frames that fail to
// parse, pass through untouched. A mid-stream upstream error just closes the
// channel; there is no error frame to emit.
func (c *Client) translateSSE(ctx context.Context, in io.ReadCloser, out chan<- []byte) {
	defer close(out)
	defer in.Close()

	emit := func(line string) bool {
		if strings.TrimSpace(line) == "" {
			return true
		}
		rewritten := RewriteStreamLine(line, c.settings.Snapshot().ShowReasoning)
		select {
		case out <- []byte(rewritten + "\n\n"):
			return true
		case <-ctx.Done():
			return false
		}
	}

	var lb LineBuffer
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			for _, line := range lb.Feed(buf[:n]) {
				if !emit(line) {
					return
				}
			}
		}
		if err != nil {
			if line, ok := lb.Flush(); ok {
				emit(line)
			}
			return
		}
	}
}

// extractUpstreamMessage pulls the message out of an OpenAI-style error
// body, falling back to the raw body text.
func extractUpstreamMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "upstream request failed"
	}
	return text
}
