package llm

import (
	"context"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenAIGenerator streams raw text completions from an OpenAI-compatible
// /v1/completions endpoint (llama.cpp, vLLM, TGI, ...).
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAIGenerator {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}))
	client := openai.NewClient(opts...)
	return &OpenAIGenerator{client: &client, model: model}
}

func (o *OpenAIGenerator) Model() string { return o.model }

func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string, params Params) (Stream, error) {
	req := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(o.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(prompt),
		},
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}
	if params.Temperature != nil {
		req.Temperature = openai.Float(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = openai.Float(*params.TopP)
	}
	if len(params.Stop) > 0 {
		req.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: params.Stop}
	}

	return &completionStream{inner: o.client.Completions.NewStreaming(ctx, req)}, nil
}

type completionStream struct {
	inner   *ssestream.Stream[openai.Completion]
	current string
}

func (s *completionStream) Next() bool {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Text == "" {
			continue
		}
		s.current = chunk.Choices[0].Text
		return true
	}
	return false
}

func (s *completionStream) Current() string { return s.current }
func (s *completionStream) Err() error      { return s.inner.Err() }
func (s *completionStream) Close() error    { return s.inner.Close() }
