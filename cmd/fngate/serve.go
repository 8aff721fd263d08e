package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"fngate/internal/completion"
	"fngate/internal/config"
	"fngate/internal/db"
	"fngate/internal/gateway"
	"fngate/internal/history"
	"fngate/internal/llm"
	"fngate/internal/prompt"
	"fngate/internal/trace"

	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveBackend string
	serveModel   string
	serveDryRun  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the OpenAI-compatible chat completions API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serveAddr != "" {
			cfg.Gateway.Addr = serveAddr
		}
		if serveBackend != "" {
			cfg.Backend.BaseURL = serveBackend
		}
		if serveModel != "" {
			cfg.Backend.Model = serveModel
		}

		shutdown, err := trace.Init(ctx, cfg.Trace)
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		}()

		opts := []completion.Option{
			completion.WithAssembler(prompt.NewAssembler(
				prompt.WithKnowledgeCutoff(cfg.Prompt.KnowledgeCutoff),
				prompt.WithDefaultSystemPrompt(cfg.Prompt.DefaultSystem),
			)),
			completion.WithDefaultMaxTokens(cfg.Generation.MaxTokens),
		}
		if len(cfg.Generation.StopTokens) > 0 {
			opts = append(opts, completion.WithStopTokens(cfg.Generation.StopTokens))
		}

		if cfg.DB.Path != "" {
			database, err := db.Open(cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := database.Migrate(); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			opts = append(opts, completion.WithStore(history.NewStore(database)))
			slog.Info("completion log enabled", "path", cfg.DB.Path)
		}

		var generator llm.Generator
		if serveDryRun {
			generator = dryRunGenerator()
			slog.Info("dry run: replaying canned completions")
		} else {
			generator = llm.NewOpenAI(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Model)
		}

		srv := gateway.NewServer(completion.NewService(generator, opts...))
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "backend", cfg.Backend.BaseURL, "model", generator.Model())
		return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "override gateway listen address")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "override backend completions base URL")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "override backend model name")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "answer with a canned tool call instead of calling the backend")
}

// dryRunGenerator calls get_current_weather on the first turn and answers in
// plain text afterwards, which is enough to walk the chat command's loop.
func dryRunGenerator() *llm.StaticGenerator {
	g := llm.NewScripted(
		[]string{`<function=get_current_weather>`, `{"location": "Istanbul, TR", "unit": "celsius"}`, `</function>`},
		[]string{"The weather tool says it is 32 degrees celsius.", prompt.EndOfTurn},
	)
	g.Name = "dry-run"
	return g
}
