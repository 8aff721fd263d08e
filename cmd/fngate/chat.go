package main

import (
	"fmt"
	"log/slog"

	"fngate/internal/client"
	"fngate/internal/config"

	"github.com/spf13/cobra"
)

var (
	chatBaseURL string
	chatModel   string
	chatRounds  int
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the gateway a question and run its tool calls locally",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if chatBaseURL != "" {
			cfg.Client.BaseURL = chatBaseURL
		}
		if chatModel != "" {
			cfg.Client.Model = chatModel
		}
		if chatRounds > 0 {
			cfg.Client.MaxRounds = chatRounds
		}

		registry := client.NewRegistry()
		registry.Register(&client.Weather{})
		if cfg.Services.Brave.APIKey != "" {
			brave, err := client.NewBraveSearch(cfg.Services.Brave.APIKey)
			if err != nil {
				return err
			}
			registry.Register(brave)
		} else {
			slog.Debug("brave_search disabled: no API key")
		}

		out := cmd.OutOrStdout()
		c := client.New(cfg.Client.BaseURL, "", cfg.Client.Model, registry,
			client.WithMaxRounds(cfg.Client.MaxRounds),
			client.WithStepHandler(func(s client.Step) {
				if s.ToolName != "" {
					fmt.Fprintf(out, "-> %s(%s) [%s]\n<- %s\n", s.ToolName, s.Input, s.CallID, s.Output)
				}
			}),
		)

		var question string
		if len(args) > 0 {
			question = args[0]
		}
		answer, _, err := c.Run(cmd.Context(), client.WeatherConversation(question))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatBaseURL, "url", "", "override gateway base URL")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "override model name")
	chatCmd.Flags().IntVar(&chatRounds, "max-rounds", 0, "maximum tool rounds")
}
