package proxy

import (
	"github.com/modelrelay/modelrelay/internal/settings"
	"github.com/modelrelay/modelrelay/pkg/types"
)

// BuildUpstreamRequest assembles the upstream request body from the inbound
// request and the current settings snapshot. Messages pass through verbatim;
// caller-supplied values win over settings defaults, including an explicit
// temperature of zero. Optional sampling fields are forwarded only when the
// caller sent them.
func BuildUpstreamRequest(req *types.ChatCompletionRequest, upstreamModel string, snap settings.Snapshot) map[string]interface{} {
	body := map[string]interface{}{
		"model":    upstreamModel,
		"messages": req.Messages,
	}

	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	} else {
		body["temperature"] = snap.Temperature
	}
	if req.MaxTokens != nil {
		body["max_tokens"] = *req.MaxTokens
	} else {
		body["max_tokens"] = snap.MaxTokens
	}
	body["stream"] = EffectiveStream(req, snap)

	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if req.FrequencyPenalty != nil {
		body["frequency_penalty"] = *req.FrequencyPenalty
	}
	if req.PresencePenalty != nil {
		body["presence_penalty"] = *req.PresencePenalty
	}

	// A false flag is never sent; the field is simply absent.
	if snap.EnableThinking {
		body["enable_thinking"] = true
	}

	return body
}

// EffectiveStream reports whether the request should use the streaming path:
// the caller's stream flag when present, else the settings default.
func EffectiveStream(req *types.ChatCompletionRequest, snap settings.Snapshot) bool {
	if req.Stream != nil {
		return *req.Stream
	}
	return snap.StreamingEnabled
}
