package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"muxprep/internal/config"
	"muxprep/internal/deps"
	"muxprep/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			writeConfigSummary(out, ctx, cfg, colorize)

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{})
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				fmt.Fprintln(out, renderStatusLine(r.Name, preflightKind(r), r.Detail, colorize))
			}

			writeToolVersions(cmd, out, cfg, colorize)

			if failed, ok := preflight.FirstFailure(results); ok {
				return fmt.Errorf("check failed: %s", failed.Name)
			}
			return nil
		},
	}
}

func writeConfigSummary(out io.Writer, ctx *commandContext, cfg *config.Config, colorize bool) {
	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	source := ctx.configPath
	if !ctx.configExists {
		source += " (defaults)"
	}
	preset := cfg.ActivePreset
	if preset == "" {
		preset = "none"
	}
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, source, colorize))
	fmt.Fprintln(out, renderStatusLine("Preset", statusInfo, preset, colorize))
	fmt.Fprintln(out, renderStatusLine("Languages", statusInfo, strings.Join(cfg.Selection.Languages, ", "), colorize))
	fmt.Fprintln(out, renderStatusLine("Normalization", statusInfo, cfg.Normalization.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Encode video", statusInfo, yesNo(cfg.Video.Encode), colorize))
	fmt.Fprintln(out, renderStatusLine("Rename", statusInfo, yesNo(cfg.Rename.Enabled), colorize))
	fmt.Fprintln(out)
}

func writeToolVersions(cmd *cobra.Command, out io.Writer, cfg *config.Config, colorize bool) {
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Versions", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if !status.Available {
			continue
		}
		version, err := deps.Version(cmd.Context(), status.Path, nil)
		if err != nil {
			fmt.Fprintln(out, renderStatusLine(status.Name, statusWarn, err.Error(), colorize))
			continue
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, statusInfo, version, colorize))
	}
}
