package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		in     string
		status Status
		fn     string
		args   string
	}{
		{"plain text", "The weather is sunny.", None, "", ""},
		{"empty", "", None, "", ""},
		{"partial tag", "<func", None, "", ""},
		{"name pending", "<function=get_current_", Incomplete, "", ""},
		{"object pending", "<function=get_current_weather>", Incomplete, "get_current_weather", ""},
		{"object open", `<function=get_current_weather>{"location": "Bos`, Incomplete, "get_current_weather", ""},
		{"complete without close tag", `<function=get_current_weather>{"location": "Boston"}`, Complete, "get_current_weather", `{"location": "Boston"}`},
		{"complete with close tag", `<function=f>{"a": 1}</function>`, Complete, "f", `{"a": 1}`},
		{"nested object", `<function=f>{"a": {"b": [1, {"c": 2}]}}</function>`, Complete, "f", `{"a": {"b": [1, {"c": 2}]}}`},
		{"braces in strings", `<function=f>{"q": "} and {", "e": "\"}"}`, Complete, "f", `{"q": "} and {", "e": "\"}"}`},
		{"preceded by text", `Sure. <function=f>{}`, Complete, "f", `{}`},
		{"trailing comma", `<function=f>{"a": 1,}`, Malformed, "f", `{"a": 1,}`},
		{"not an object", `<function=f>[1, 2]`, Malformed, "f", ""},
		{"empty name", `<function=>{"a": 1}`, Malformed, "", ""},
		{"brace in name", `<function=f}x>{"a": 1}`, Malformed, "", ""},
		{"name ends at first '>'", `<function=a>b>{"x": 1}`, Malformed, "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Scan(tt.in)
			assert.Equal(t, tt.status, m.Status, m.Reason)
			assert.Equal(t, tt.fn, m.Name)
			assert.Equal(t, tt.args, m.Arguments)
		})
	}
}

func TestScan_Offsets(t *testing.T) {
	t.Parallel()
	in := `ok <function=f>{"a": 1}</function> tail`
	m := Scan(in)
	assert.Equal(t, Complete, m.Status)
	assert.Equal(t, 3, m.Start)
	assert.Equal(t, " tail", in[m.End:])

	m = Scan(`<function=f>{"a": 1} tail`)
	assert.Equal(t, " tail", `<function=f>{"a": 1} tail`[m.End:])
}

func TestStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "incomplete", Incomplete.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "malformed", Malformed.String())
}
