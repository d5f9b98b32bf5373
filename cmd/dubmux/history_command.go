package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubmux/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent merges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("merge history is disabled (history.enabled = false)")
			}

			store, err := history.Open(cfg.Paths.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limitFlag)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No merges recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				outcome := rec.Outcome
				if rec.Outcome == history.OutcomeToolError {
					outcome = fmt.Sprintf("%s (%d)", rec.Outcome, rec.ExitCode)
				}
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format("2006-01-02 15:04"),
					rec.VideoPath,
					rec.ExternalPath,
					strconv.Itoa(rec.VideoAudioIndex),
					strconv.Itoa(rec.ExternalTrackIndex),
					outcome,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Video", "External", "V-Audio", "E-Track", "Outcome"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of merges to show")
	return cmd
}
