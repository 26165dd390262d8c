package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/seriesmux/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show processing history",
	Long: `List past processing outcomes from the local history database.

Examples:
  seriesmux history
  seriesmux history --series "Frieren" --event merged
  seriesmux history --limit 20`,
	RunE: runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("series", "", "Filter by series title")
	historyCmd.Flags().String("event", "", "Filter by event: merged, failed, skipped, validated")
	historyCmd.Flags().Int("limit", 50, "Maximum entries to show")
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	series, _ := cmd.Flags().GetString("series")
	event, _ := cmd.Flags().GetString("event")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(history.Filter{
		Series: series,
		Event:  event,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-9s  %s S%02dE%02d",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Event, e.Series, e.Season, e.Episode)
		if e.Detail != "" {
			line += "  (" + e.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}
