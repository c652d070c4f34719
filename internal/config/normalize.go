package config

import (
	"fmt"
	"strings"

	"muxprep/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeSelection()
	c.normalizeNormalization()
	c.normalizeTools()
	c.normalizeLogging()
	c.normalizePresets()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = cloneStrings(defaultExtensions)
	}
	c.Scan.Extensions = exts
	c.Scan.SkipKeyword = strings.ToLower(strings.TrimSpace(c.Scan.SkipKeyword))
}

func (c *Config) normalizeSelection() {
	c.Selection.Languages = language.NormalizeList(c.Selection.Languages)
	c.Selection.AtmosOverride = language.NormalizeList(c.Selection.AtmosOverride)
	c.Selection.DefaultSubtitleLanguages = language.NormalizeList(c.Selection.DefaultSubtitleLanguages)

	fallback := language.Normalize(c.Selection.DefaultLanguageForUnknown)
	if language.IsUnknown(fallback) {
		fallback = ""
	}
	c.Selection.DefaultLanguageForUnknown = fallback

	c.Selection.AudioOrder = normalizeTokens(c.Selection.AudioOrder)
	c.Selection.SubtitleFormatOrder = normalizeTokens(c.Selection.SubtitleFormatOrder)
	c.Selection.SubtitleTypeOrder = normalizeTokens(c.Selection.SubtitleTypeOrder)
	if len(c.Selection.AudioOrder) == 0 {
		c.Selection.AudioOrder = cloneStrings(defaultAudioOrder)
	}
	if len(c.Selection.SubtitleFormatOrder) == 0 {
		c.Selection.SubtitleFormatOrder = cloneStrings(defaultSubtitleFormatOrder)
	}
	if len(c.Selection.SubtitleTypeOrder) == 0 {
		c.Selection.SubtitleTypeOrder = cloneStrings(defaultSubtitleTypeOrder)
	}
}

func (c *Config) normalizeNormalization() {
	mode := strings.ToLower(strings.TrimSpace(c.Normalization.Mode))
	if mode == "" {
		mode = NormalizationOff
	}
	c.Normalization.Mode = mode
	c.Normalization.Branding = strings.TrimSpace(c.Normalization.Branding)
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.MediaInfo = strings.TrimSpace(c.Tools.MediaInfo)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePresets() {
	if len(c.Presets) == 0 {
		return
	}
	normalized := make(map[string]Preset, len(c.Presets))
	for name, preset := range c.Presets {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		normalized[key] = preset
	}
	c.Presets = normalized
}

func normalizeTokens(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := strings.ToLower(strings.TrimSpace(value))
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
