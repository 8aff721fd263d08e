// Package client is a small chat client for fngate. It sends a conversation
// through openai-go's chat completions API and runs returned tool calls
// locally until the model answers in plain text.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultMaxRounds = 4

var ErrTooManyRounds = errors.New("model kept calling tools")

// Step reports one model reply or one tool execution.
type Step struct {
	Round    int
	Content  string
	ToolName string
	CallID   string
	Input    string
	Output   string
}

type Option func(*Client)

func WithMaxRounds(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// WithSampling sets the sampling parameters sent with every request.
func WithSampling(temperature, topP float64, maxTokens int) Option {
	return func(c *Client) {
		c.temperature = temperature
		c.topP = topP
		c.maxTokens = maxTokens
	}
}

// WithStepHandler receives every step as it happens.
func WithStepHandler(fn func(Step)) Option {
	return func(c *Client) { c.onStep = fn }
}

type Client struct {
	api      *openai.Client
	model    string
	registry *Registry

	maxRounds   int
	temperature float64
	topP        float64
	maxTokens   int
	onStep      func(Step)
}

func New(baseURL, apiKey, model string, registry *Registry, opts ...Option) *Client {
	// The gateway does not check keys but the SDK insists on one.
	if apiKey == "" {
		apiKey = "fngate"
	}
	api := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	)
	c := &Client{
		api:         &api,
		model:       model,
		registry:    registry,
		maxRounds:   DefaultMaxRounds,
		temperature: 0.5,
		topP:        0.95,
		maxTokens:   1024,
		onStep:      func(Step) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run sends messages and executes tool calls until the model replies with
// plain text. It returns that reply and the full conversation.
func (c *Client) Run(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, []openai.ChatCompletionMessageParamUnion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		TopP:        openai.Float(c.topP),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}
	if c.registry != nil {
		params.Tools = c.registry.Params()
	}

	for round := 1; round <= c.maxRounds; round++ {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", params.Messages, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", params.Messages, fmt.Errorf("chat completion: empty choices")
		}

		msg := resp.Choices[0].Message
		params.Messages = append(params.Messages, msg.ToParam())
		c.onStep(Step{Round: round, Content: msg.Content})

		if len(msg.ToolCalls) == 0 {
			return msg.Content, params.Messages, nil
		}

		for _, tc := range msg.ToolCalls {
			out := c.execute(ctx, tc.Function.Name, tc.Function.Arguments)
			slog.Info("tool executed", "round", round, "tool", tc.Function.Name, "call_id", tc.ID)
			c.onStep(Step{
				Round:    round,
				ToolName: tc.Function.Name,
				CallID:   tc.ID,
				Input:    tc.Function.Arguments,
				Output:   out,
			})
			params.Messages = append(params.Messages, openai.ToolMessage(out, tc.ID))
		}
	}
	return "", params.Messages, ErrTooManyRounds
}

func (c *Client) execute(ctx context.Context, name, input string) string {
	if c.registry == nil {
		return "error: no tools available"
	}
	return c.registry.Execute(ctx, name, input)
}

// WeatherConversation is the sample conversation used by the chat command.
func WeatherConversation(question string) []openai.ChatCompletionMessageParamUnion {
	if question == "" {
		question = "What is the weather like in Istanbul today?"
	}
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant with tool calling capabilities. " +
			"Use the available functions when they help answer the question."),
		openai.UserMessage(question),
	}
}
