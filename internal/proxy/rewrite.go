package proxy

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelrelay/modelrelay/pkg/types"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// frameKind tags an upstream SSE line so the pass-through policy is an
// explicit variant, not an exception path.
type frameKind int

const (
	frameRaw frameKind = iota // non-data line, or data payload that failed to parse
	frameDone
	frameEvent
)

type frame struct {
	kind  frameKind
	event map[string]interface{}
}

func parseFrame(line string) frame {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, dataPrefix) {
		return frame{kind: frameRaw}
	}

	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, dataPrefix))
	if payload == doneMarker {
		return frame{kind: frameDone}
	}

	var event map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return frame{kind: frameRaw}
	}
	return frame{kind: frameEvent, event: event}
}

// IsDoneLine reports whether a line is the upstream stream-end sentinel.
func IsDoneLine(line string) bool {
	return parseFrame(line).kind == frameDone
}

// RewriteStreamLine translates one upstream SSE line for the caller.
// Non-data lines, the [DONE] sentinel, and malformed JSON payloads come back
// unchanged; a malformed upstream frame must never fail the request. Parsed
// events have reasoning_content stripped from every delta and, when
// showReasoning is set, merged into content wrapped in think tags.
func RewriteStreamLine(line string, showReasoning bool) string {
	f := parseFrame(line)
	if f.kind != frameEvent {
		return line
	}

	rewriteDeltas(f.event, showReasoning)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f.event); err != nil {
		return line
	}
	return dataPrefix + " " + strings.TrimSuffix(buf.String(), "\n")
}

func rewriteDeltas(event map[string]interface{}, showReasoning bool) {
	choices, ok := event["choices"].([]interface{})
	if !ok {
		return
	}

	for _, choice := range choices {
		choiceMap, ok := choice.(map[string]interface{})
		if !ok {
			continue
		}
		delta, ok := choiceMap["delta"].(map[string]interface{})
		if !ok {
			continue
		}

		reasoning, hasReasoning := delta["reasoning_content"]
		if !hasReasoning {
			continue
		}
		// Never forwarded as-is, whatever the setting says.
		delete(delta, "reasoning_content")

		reasoningText, ok := reasoning.(string)
		if !ok || reasoningText == "" || !showReasoning {
			continue
		}

		content, _ := delta["content"].(string)
		delta["content"] = mergeReasoning(content, reasoningText)
	}
}

// mergeReasoning prepends think-tagged reasoning to content, with a blank
// line between the two when both are present.
func mergeReasoning(content, reasoning string) string {
	wrapped := thinkOpen + reasoning + thinkClose
	if content == "" {
		return wrapped
	}
	return wrapped + "\n\n" + content
}

// RewriteResponse builds the caller-facing completion from a buffered
// upstream reply: fresh id, the caller's model string, per-choice think-tag
// merge under the same rule as streaming, usage copied or zeroed.
func RewriteResponse(upstream *types.UpstreamResponse, callerModel string, showReasoning bool) *types.ChatCompletionResponse {
	choices := make([]types.Choice, 0, len(upstream.Choices))
	for _, c := range upstream.Choices {
		content := c.Message.Content
		if showReasoning && c.Message.ReasoningContent != "" {
			content = mergeReasoning(content, c.Message.ReasoningContent)
		}

		role := c.Message.Role
		if role == "" {
			role = "assistant"
		}

		choices = append(choices, types.Choice{
			Index:        c.Index,
			Message:      types.ResponseMessage{Role: role, Content: content},
			FinishReason: c.FinishReason,
		})
	}

	usage := types.Usage{}
	if upstream.Usage != nil {
		usage = *upstream.Usage
	}

	return &types.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   callerModel,
		Choices: choices,
		Usage:   usage,
	}
}
