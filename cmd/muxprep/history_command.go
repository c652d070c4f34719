package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"muxprep/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently processed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No files processed yet")
				return nil
			}
			writeHistory(out, records, time.Now(), shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	return cmd
}

func writeHistory(out io.Writer, records []history.Record, now time.Time, colorize bool) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		gain := ""
		if rec.GainDB > 0 {
			gain = strconv.FormatFloat(rec.GainDB, 'f', 2, 64) + " dB"
		}
		detail := filepath.Base(rec.OutputPath)
		if rec.Error != "" {
			detail = rec.Error
		} else if rec.OutputPath == "" {
			detail = ""
		}
		status := colorStatus(rec.Status, colorize)
		if rec.DryRun {
			status += " (dry run)"
		}
		rows = append(rows, []string{
			humanize.RelTime(rec.FinishedAt, now, "ago", "from now"),
			status,
			filepath.Base(rec.SourcePath),
			fmt.Sprintf("%d/%d", rec.AudioTracks, rec.SubtitleTracks),
			gain,
			rec.Duration().Round(time.Second).String(),
			detail,
		})
	}
	columns := []column{
		{Header: "Finished"},
		{Header: "Status"},
		{Header: "File", MaxWidth: 48},
		{Header: "A/S", Align: alignRight},
		{Header: "Gain", Align: alignRight},
		{Header: "Time", Align: alignRight},
		{Header: "Output / Error", MaxWidth: 60},
	}
	fmt.Fprintln(out, renderTable("", columns, rows))
}
