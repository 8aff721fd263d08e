package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"fngate/internal/chat"
	"fngate/internal/completion"
	"fngate/internal/gateway"
	"fngate/internal/llm"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, gen *llm.StaticGenerator) *httptest.Server {
	t.Helper()
	svc := completion.NewService(gen, completion.WithIDGenerator(&chat.SequentialIDs{}))
	srv := httptest.NewServer(gateway.NewServer(svc).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func weatherRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Weather{})
	return r
}

func TestClient_RunsToolThenAnswers(t *testing.T) {
	gen := llm.NewScripted(
		[]string{`<function=get_current_weather>{"location": "Istanbul, TR"}</function>`},
		[]string{"It is 32 degrees in Istanbul."},
	)
	srv := newGateway(t, gen)

	var steps []Step
	c := New(srv.URL+"/v1", "", "llama", weatherRegistry(), WithStepHandler(func(s Step) {
		steps = append(steps, s)
	}))

	answer, conv, err := c.Run(context.Background(), WeatherConversation(""))
	require.NoError(t, err)
	assert.Equal(t, "It is 32 degrees in Istanbul.", answer)
	// system, user, assistant call, tool result, assistant answer
	assert.Len(t, conv, 5)

	require.Len(t, steps, 3)
	assert.Equal(t, "get_current_weather", steps[1].ToolName)
	assert.Equal(t, "call_000001", steps[1].CallID)
	assert.JSONEq(t, `{"location":"Istanbul","temperature":"32","unit":"celsius"}`, steps[1].Output)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Use the function 'get_current_weather'")
	assert.Contains(t, prompts[1], "<|start_header_id|>ipython<|end_header_id|>")
	assert.Contains(t, prompts[1], `"temperature":"32"`)
	assert.Contains(t, prompts[1], "'id': 'call_000001'")
}

func TestClient_PlainAnswer(t *testing.T) {
	srv := newGateway(t, llm.NewStatic("Hello", " there."))
	c := New(srv.URL+"/v1", "", "llama", nil)

	answer, conv, err := c.Run(context.Background(), []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", answer)
	assert.Len(t, conv, 2)
}

func TestClient_StopsAfterMaxRounds(t *testing.T) {
	gen := llm.NewStatic(`<function=get_current_weather>{"location": "Oslo"}`)
	srv := newGateway(t, gen)
	c := New(srv.URL+"/v1", "", "llama", weatherRegistry(), WithMaxRounds(2))

	_, _, err := c.Run(context.Background(), WeatherConversation("Weather in Oslo?"))
	assert.ErrorIs(t, err, ErrTooManyRounds)
	assert.Len(t, gen.Prompts(), 2)
}

func TestClient_GatewayError(t *testing.T) {
	srv := newGateway(t, llm.NewStatic("unused"))
	c := New(srv.URL+"/v1", "", "llama", nil)

	_, _, err := c.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "chat completion"), err.Error())
}
