package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"muxprep/internal/config"
	"muxprep/internal/normalize"
	"muxprep/internal/remuxplan"
	"muxprep/internal/scanner"
	"muxprep/internal/workflow"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var skipNormalize bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Show the remux plan and ffmpeg command for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if skipNormalize {
				cfg.Normalization.Mode = config.NormalizationOff
			}

			file, err := scanner.FromPath(args[0])
			if err != nil {
				return err
			}
			processor := workflow.NewProcessor(cfg, logger, workflow.WithDryRun(true))
			outcome := processor.ProcessFile(cmd.Context(), file)
			if outcome.Err != nil {
				return fmt.Errorf("%s: %w", outcome.Stage, outcome.Err)
			}
			if outcome.Plan == nil {
				return fmt.Errorf("no plan built for %s", file.Path)
			}

			if jsonOutput {
				return writeJSON(cmd, newPlanView(*outcome.Plan, cfg.Tools.FFmpeg))
			}
			out := cmd.OutOrStdout()
			writePlan(out, *outcome.Plan, cfg.Tools.FFmpeg)
			writeNormalization(out, outcome.Normalization, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipNormalize, "skip-normalize", false, "Do not run peak analysis")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan as JSON")
	return cmd
}

type planTrackView struct {
	Kind         string   `json:"kind"`
	Source       int      `json:"source_index"`
	Output       int      `json:"output_index"`
	Codec        string   `json:"codec"`
	Bitrate      string   `json:"bitrate,omitempty"`
	Title        string   `json:"title,omitempty"`
	Language     string   `json:"language,omitempty"`
	Disposition  string   `json:"disposition,omitempty"`
	EncodeOption []string `json:"encode_options,omitempty"`
	Normalized   bool     `json:"normalized,omitempty"`
}

type planView struct {
	Source  string          `json:"source"`
	Output  string          `json:"output"`
	GainDB  *float64        `json:"gain_db,omitempty"`
	Tracks  []planTrackView `json:"tracks"`
	Command string          `json:"command"`
}

func newPlanView(plan remuxplan.Plan, ffmpeg string) planView {
	view := planView{
		Source:  plan.Source,
		Output:  plan.Output,
		Command: plan.Command(ffmpeg),
		Tracks:  make([]planTrackView, 0, len(plan.Tracks)),
	}
	if plan.Normalized != nil {
		gain := plan.Normalized.GainDB
		view.GainDB = &gain
	}
	for _, t := range plan.Tracks {
		tv := planTrackView{
			Kind:         t.Kind.String(),
			Source:       t.SourceIndex,
			Output:       t.OutputIndex,
			Codec:        t.Codec,
			Bitrate:      t.Bitrate,
			Title:        t.Title,
			Language:     t.Language,
			EncodeOption: t.EncodeOptions,
			Normalized:   t.Normalized,
		}
		if t.Kind.Specifier() != "v" {
			tv.Disposition = t.DispositionValue()
		}
		if tv.Codec == "" && len(t.EncodeOptions) > 0 {
			tv.Codec = "encode"
		}
		view.Tracks = append(view.Tracks, tv)
	}
	return view
}

func writePlan(out io.Writer, plan remuxplan.Plan, ffmpeg string) {
	view := newPlanView(plan, ffmpeg)
	rows := make([][]string, 0, len(view.Tracks))
	for _, t := range view.Tracks {
		source := strconv.Itoa(t.Source)
		if t.Normalized {
			source += " (peak)"
		}
		codec := t.Codec
		if t.Bitrate != "" {
			codec += " @ " + t.Bitrate
		}
		rows = append(rows, []string{
			t.Kind,
			source,
			strconv.Itoa(t.Output),
			codec,
			t.Language,
			t.Title,
			t.Disposition,
		})
	}
	columns := []column{
		{Header: "Kind"},
		{Header: "Source", Align: alignRight},
		{Header: "Out", Align: alignRight},
		{Header: "Codec"},
		{Header: "Lang"},
		{Header: "Title", MaxWidth: 40},
		{Header: "Disposition"},
	}
	fmt.Fprintln(out, renderTable(view.Output, columns, rows))
	fmt.Fprintln(out)
	fmt.Fprintln(out, view.Command)
}

func writeNormalization(out io.Writer, decision normalize.Decision, colorize bool) {
	if decision.Reason == "" {
		return
	}
	message := decision.State.String() + ", " + decision.Reason
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderStatusLine("Normalization", normalizationKind(decision.State), message, colorize))
}
