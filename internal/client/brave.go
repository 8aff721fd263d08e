package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	bravesearch "github.com/cnosuke/go-brave-search"
)

const maxOutputBytes = 10_000

// BraveSearch is the brave_search fallback tool named in the system prompt.
type BraveSearch struct {
	brave *bravesearch.Client
}

func NewBraveSearch(apiKey string) (*BraveSearch, error) {
	client, err := bravesearch.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating brave client: %w", err)
	}
	return &BraveSearch{brave: client}, nil
}

func (b *BraveSearch) Name() string { return "brave_search" }
func (b *BraveSearch) Description() string {
	return "Search the web for real time information when no other function applies"
}

func (b *BraveSearch) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
			"count": map[string]any{
				"type":        "number",
				"description": "Number of results to return (default 5, max 20)",
			},
		},
		"required": []string{"query"},
	}
}

func (b *BraveSearch) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing brave_search input: %w", err)
	}
	if args.Query == "" {
		return "", fmt.Errorf("query is required")
	}
	args.Count = clampCount(args.Count)

	slog.Debug("brave_search: searching", "query", args.Query, "count", args.Count)

	resp, err := b.brave.WebSearch(ctx, args.Query, &bravesearch.WebSearchParams{
		Count: args.Count,
	})
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}

	results := resp.GetWebResults()
	if len(results) == 0 {
		return "No results found.", nil
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "%s\n%s\n%s", r.Title, r.URL, r.Description)
	}
	return truncate(sb.String()), nil
}

func clampCount(n int) int {
	switch {
	case n <= 0:
		return 5
	case n > 20:
		return 20
	}
	return n
}

// truncate caps s at maxOutputBytes without splitting a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	cut := maxOutputBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
