package types

import "encoding/json"

// ChatCompletionRequest is the inbound caller request. Optional numeric and
// boolean fields are pointers so an explicit zero survives the trip through
// JSON and stays distinguishable from an absent field.
type ChatCompletionRequest struct {
	Model            string            `json:"model,omitempty"`
	Messages         []json.RawMessage `json:"messages"`
	Stream           *bool             `json:"stream,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	TopP             *float64          `json:"top_p,omitempty"`
	MaxTokens        *int              `json:"max_tokens,omitempty"`
	PresencePenalty  *float64          `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64          `json:"frequency_penalty,omitempty"`
}

// UpstreamResponse is the buffered (non-streaming) upstream reply.
type UpstreamResponse struct {
	ID      string           `json:"id"`
	Object  string           `json:"object"`
	Created int64            `json:"created"`
	Model   string           `json:"model"`
	Choices []UpstreamChoice `json:"choices"`
	Usage   *Usage           `json:"usage,omitempty"`
}

type UpstreamChoice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ResponseMessage carries assistant output. ReasoningContent only ever
// appears on the upstream side; outbound messages are built with it empty so
// the field never serializes toward the caller.
type ResponseMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// ChatCompletionResponse is the rewritten reply returned to the caller.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
