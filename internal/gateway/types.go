package gateway

import (
	"fngate/internal/chat"
	"fngate/internal/completion"
)

type chatCompletionRequest struct {
	Model       string                `json:"model"`
	Stream      bool                  `json:"stream"`
	Temperature *float64              `json:"temperature,omitempty"`
	MaxTokens   *int                  `json:"max_tokens,omitempty"`
	TopP        *float64              `json:"top_p,omitempty"`
	Tools       []chat.ToolDefinition `json:"tools,omitempty"`
	Messages    []chat.Message        `json:"messages"`
}

func (r chatCompletionRequest) toCompletion() completion.Request {
	req := completion.Request{
		Model:       r.Model,
		Messages:    r.Messages,
		Tools:       r.Tools,
		Temperature: r.Temperature,
		TopP:        r.TopP,
	}
	if r.MaxTokens != nil {
		req.MaxTokens = *r.MaxTokens
	}
	return req
}

type chatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int          `json:"index"`
	Message      chat.Message `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Index        int     `json:"index"`
	Delta        delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type delta struct {
	Role      chat.Role       `json:"role,omitempty"`
	Content   *string         `json:"content,omitempty"`
	ToolCalls []toolCallDelta `json:"tool_calls,omitempty"`
}

type toolCallDelta struct {
	Index int `json:"index"`
	chat.ToolCall
}

type modelList struct {
	Object string      `json:"object"`
	Data   []modelInfo `json:"data"`
}

type modelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
