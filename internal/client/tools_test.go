package client

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ParamsSortedByName(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(&Weather{})
	r.Register(&BraveSearch{})

	params := r.Params()
	require.Len(t, params, 2)
	assert.Equal(t, "brave_search", params[0].OfFunction.Function.Name)
	assert.Equal(t, "get_current_weather", params[1].OfFunction.Function.Name)
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "error: unknown tool", NewRegistry().Execute(context.Background(), "nope", "{}"))
}

func TestRegistry_ExecuteReportsToolErrors(t *testing.T) {
	t.Parallel()
	r := weatherRegistry()
	out := r.Execute(context.Background(), "get_current_weather", `{"unit": "celsius"}`)
	assert.Equal(t, "error: location is required", out)
}

func TestWeather_Execute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"default unit", `{"location": "Kathmandu, NP"}`, `{"location":"Kathmandu","temperature":"32","unit":"celsius"}`},
		{"fahrenheit", `{"location": "Boston, MA", "unit": "fahrenheit"}`, `{"location":"Boston","temperature":"32","unit":"fahrenheit"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := (&Weather{}).Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, out)
		})
	}

	_, err := (&Weather{}).Execute(context.Background(), "not json")
	assert.Error(t, err)
}

func TestBraveSearch_InputValidation(t *testing.T) {
	t.Parallel()
	b := &BraveSearch{}
	_, err := b.Execute(context.Background(), `{}`)
	assert.EqualError(t, err, "query is required")
	_, err = b.Execute(context.Background(), `{`)
	assert.Error(t, err)
}

func TestClampCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5, clampCount(0))
	assert.Equal(t, 7, clampCount(7))
	assert.Equal(t, 20, clampCount(99))
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	short := "ok"
	assert.Equal(t, short, truncate(short))

	exact := strings.Repeat("a", maxOutputBytes)
	assert.Equal(t, exact, truncate(exact))

	// "é" is two bytes; the limit falls in the middle of one.
	long := "x" + strings.Repeat("é", maxOutputBytes/2)
	out := truncate(long)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "\n... (truncated)"))
	body := strings.TrimSuffix(out, "\n... (truncated)")
	assert.Len(t, body, maxOutputBytes-1)
}
