package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelrelay/modelrelay/internal/proxy"
	"github.com/modelrelay/modelrelay/pkg/types"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, http.StatusNotFound,
		fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		"not_found_error", "not_found")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handleNotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"service":            "modelrelay",
		"model":              s.resolver.Fallback(),
		"api_key_configured": s.config.UpstreamAPIKey != "",
		"config":             s.settings.Snapshot(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handleNotFound(w, r)
		return
	}

	now := time.Now().Unix()
	ids := s.resolver.Models()
	data := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		data = append(data, map[string]interface{}{
			"id":         id,
			"object":     "model",
			"created":    now,
			"owned_by":   "modelrelay",
			"permission": []interface{}{},
			"root":       id,
			"parent":     nil,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"object": "list",
		"data":   data,
	})
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.handleNotFound(w, r)
		return
	}

	// No upstream call is attempted without a credential.
	if strings.TrimSpace(s.config.UpstreamAPIKey) == "" {
		writeAPIError(w, http.StatusInternalServerError,
			"upstream API key is not configured",
			"configuration_error", "missing_api_key")
		return
	}

	var reqBody types.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error", "bad_request")
		return
	}
	if len(reqBody.Messages) == 0 {
		writeAPIError(w, http.StatusBadRequest, "messages are required", "invalid_request_error", "bad_request")
		return
	}

	snap := s.settings.Snapshot()
	upstreamModel := s.resolver.Resolve(reqBody.Model)
	streaming := proxy.EffectiveStream(&reqBody, snap)

	if snap.LogRequests {
		log.Info().
			Str("model", reqBody.Model).
			Str("upstream_model", upstreamModel).
			Int("messages", len(reqBody.Messages)).
			Bool("stream", streaming).
			Msg("chat completion request")
	}

	body := proxy.BuildUpstreamRequest(&reqBody, upstreamModel, snap)

	if streaming {
		s.handleStreamChatCompletions(r.Context(), w, body)
		return
	}

	upstream, err := s.client.ChatCompletion(r.Context(), body)
	if err != nil {
		s.metrics.UpstreamErrorsTotal.Inc()
		writeUpstreamError(w, err)
		return
	}

	resp := proxy.RewriteResponse(upstream, reqBody.Model, s.settings.Snapshot().ShowReasoning)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStreamChatCompletions(ctx context.Context, w http.ResponseWriter, body map[string]interface{}) {
	stream, err := s.client.ChatCompletionStream(ctx, body)
	if err != nil {
		s.metrics.UpstreamErrorsTotal.Inc()
		writeUpstreamError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error(), "internal_error", "internal_error")
		return
	}

	doneWritten := false
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-stream:
			if !ok {
				if !doneWritten {
					_ = sse.WriteDone()
				}
				return
			}

			if err := sse.WriteChunk(chunk); err != nil {
				return
			}
			s.metrics.StreamEventsTotal.Inc()
			if proxy.IsDoneLine(string(chunk)) {
				doneWritten = true
			}
		}
	}
}

// writeUpstreamError maps an upstream failure to the caller envelope,
// mirroring the upstream status code when it is known.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var upErr *proxy.UpstreamError
	if errors.As(err, &upErr) {
		writeAPIError(w, upErr.StatusCode, upErr.Message, "upstream_error", "upstream_error")
		return
	}
	writeAPIError(w, http.StatusInternalServerError, err.Error(), "upstream_error", "upstream_error")
}
