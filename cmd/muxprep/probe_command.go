package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"muxprep/internal/classify"
	"muxprep/internal/media/probe"
	"muxprep/internal/track"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Show the merged track metadata and semantic types of one file",
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
			provider := probe.NewProvider(cfg, logger)
			report, err := provider.Tracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeProbeReport(out, report, classify.Options{AtmosOverride: cfg.Selection.AtmosOverride}, shouldColorize(out))
			return nil
		},
	}
}

func writeProbeReport(out io.Writer, report probe.Report, opts classify.Options, colorize bool) {
	set := track.Separate(report.Tracks)
	rows := make([][]string, 0, len(report.Tracks))
	for _, v := range set.Video {
		rows = append(rows, probeRow(v.Base, track.KindVideo, v.Codec, fmt.Sprintf("%dx%d %s", v.Width, v.Height, v.FrameRate), ""))
	}
	for _, a := range set.Audio {
		semantic := classify.Audio(a, opts)
		detail := classify.AudioDisplayName(semantic)
		rows = append(rows, probeRow(a.Base, track.KindAudio, firstNonEmpty(a.Codec, a.Format), detail, strconv.Itoa(a.Channels)))
	}
	for _, s := range set.Subtitles {
		detail := classify.SubtitleFormat(s.Codec) + " " + classify.SubtitleType(s)
		rows = append(rows, probeRow(s.Base, track.KindSubtitle, s.Codec, detail, ""))
	}

	columns := []column{
		{Header: "Kind"},
		{Header: "#", Align: alignRight},
		{Header: "Codec"},
		{Header: "Type"},
		{Header: "Ch", Align: alignRight},
		{Header: "Lang"},
		{Header: "Default"},
		{Header: "Forced"},
		{Header: "Title", MaxWidth: 40},
	}
	title := fmt.Sprintf("%s (%s)", report.Path, report.Source)
	fmt.Fprintln(out, renderTable(title, columns, rows))
	if report.Duration > 0 {
		fmt.Fprintf(out, "Duration: %s\n", report.Duration)
	}
	for _, w := range report.Warnings {
		fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, w.String(), colorize))
	}
}

func probeRow(base track.Base, kind track.Kind, codec, detail, channels string) []string {
	forced := yesNo(base.Forced)
	if base.FlagsUnreliable {
		forced += " (?)"
	}
	return []string{
		kind.String(),
		strconv.Itoa(base.LocalIndex),
		codec,
		strings.TrimSpace(detail),
		channels,
		base.Language,
		yesNo(base.Default),
		forced,
		base.Title,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
