package main

import (
	"os"

	"fngate/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:          "fngate",
		Short:        "fngate adds OpenAI-style tool calling to Llama 3.1 completion servers",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(setupCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
