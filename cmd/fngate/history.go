package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"fngate/internal/config"
	"fngate/internal/db"
	"fngate/internal/history"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent completion turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.DB.Path == "" {
			return fmt.Errorf("completion log is disabled (db.path is empty)")
		}

		database, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		turns, err := history.NewStore(database).Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIME\tMODEL\tFINISH\tREPLY")
		for _, t := range turns {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.CreatedAt.Local().Format(time.DateTime), t.Model, t.FinishReason, summarize(t))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of turns to show")
}

func summarize(t history.Turn) string {
	if len(t.Response.ToolCalls) > 0 {
		fn := t.Response.ToolCalls[0].Function
		return fmt.Sprintf("%s(%s)", fn.Name, fn.Arguments)
	}
	s := []rune(t.Response.Content)
	if len(s) > 60 {
		return string(s[:60]) + "..."
	}
	return string(s)
}
