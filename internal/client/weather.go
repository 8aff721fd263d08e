package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Weather answers get_current_weather with a fixed reading. It stands in for
// a real weather API in the demo conversation.
type Weather struct {
	Temperature string
}

func (w *Weather) Name() string { return "get_current_weather" }
func (w *Weather) Description() string {
	return "Get the current weather in a given location"
}

func (w *Weather) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "The city and state, e.g. San Francisco, CA",
			},
			"unit": map[string]any{
				"type": "string",
				"enum": []string{"celsius", "fahrenheit"},
			},
		},
		"required": []string{"location"},
	}
}

func (w *Weather) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Location string `json:"location"`
		Unit     string `json:"unit"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing get_current_weather input: %w", err)
	}
	if args.Location == "" {
		return "", fmt.Errorf("location is required")
	}
	if args.Unit == "" {
		args.Unit = "celsius"
	}
	temp := w.Temperature
	if temp == "" {
		temp = "32"
	}

	city, _, _ := strings.Cut(args.Location, ",")
	out, err := json.Marshal(map[string]string{
		"location":    strings.TrimSpace(city),
		"temperature": temp,
		"unit":        args.Unit,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
