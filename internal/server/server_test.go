package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/pkg/types"
)

type fakeClient struct {
	chatResp  *types.UpstreamResponse
	chatErr   error
	stream    <-chan []byte
	streamErr error
	called    bool
}

func (f *fakeClient) ChatCompletion(_ context.Context, _ map[string]interface{}) (*types.UpstreamResponse, error) {
	f.called = true
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chatResp, nil
}

func (f *fakeClient) ChatCompletionStream(_ context.Context, _ map[string]interface{}) (<-chan []byte, error) {
	f.called = true
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Host:           "127.0.0.1",
		Port:           8000,
		UpstreamAPIKey: "sk-test",
	}
	return New(cfg, nil, nil, nil)
}

func TestServerStartStop(t *testing.T) {
	s := newTestServer(t)

	startCalled := false
	s.serveFn = func() error {
		startCalled = true
		return http.ErrServerClosed
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !startCalled {
		t.Fatal("serveFn should be called")
	}

	stopCalled := false
	s.shutdownFn = func(_ context.Context) error {
		stopCalled = true
		return nil
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if !stopCalled {
		t.Fatal("shutdownFn should be called")
	}

	s.shutdownFn = func(_ context.Context) error {
		return http.ErrServerClosed
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() should ignore ErrServerClosed, got: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	for _, fragment := range []string{
		`"status":"ok"`,
		`"service":"modelrelay"`,
		`"api_key_configured":true`,
		`"showReasoning":true`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("health body missing %s: %s", fragment, body)
		}
	}
}

func TestHandleModels(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var payload struct {
		Object string `json:"object"`
		Data   []struct {
			ID   string `json:"id"`
			Root string `json:"root"`
		} `json:"data"`
	}
	decodeBody(t, rec, &payload)

	if payload.Object != "list" {
		t.Fatalf("object = %q, want list", payload.Object)
	}
	if len(payload.Data) != len(s.resolver.Models()) {
		t.Fatalf("len(data) = %d, want %d", len(payload.Data), len(s.resolver.Models()))
	}
	for _, m := range payload.Data {
		if m.ID == "" || m.ID != m.Root {
			t.Fatalf("model entry id=%q root=%q, want matching ids", m.ID, m.Root)
		}
	}
}

func TestNotFoundRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodPost, "/v1/embeddings"},
		{http.MethodDelete, "/v1/chat/completions"},
		{http.MethodPost, "/health"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		s.httpServer.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.path, rec.Code, http.StatusNotFound)
		}
		if !strings.Contains(rec.Body.String(), `"type":"not_found_error"`) {
			t.Fatalf("%s %s: body = %s", tc.method, tc.path, rec.Body.String())
		}
	}
}
