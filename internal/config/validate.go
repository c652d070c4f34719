package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var subtitleTypes = map[string]struct{}{
	"forced": {},
	"normal": {},
	"cc":     {},
	"sdh":    {},
}

// Validate ensures the configuration is usable. Every error returned here is
// fatal for the run and is reported before any file is touched.
func (c *Config) Validate() error {
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateNormalization(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSelection() error {
	if len(c.Selection.Languages) == 0 {
		return errors.New("selection.languages must include at least one known language")
	}
	for _, kind := range c.Selection.SubtitleTypeOrder {
		if _, ok := subtitleTypes[kind]; !ok {
			return fmt.Errorf("selection.subtitle_type_order: unknown subtitle type %q (expected forced, normal, cc or sdh)", kind)
		}
	}
	return nil
}

func (c *Config) validateNormalization() error {
	n := c.Normalization
	switch n.Mode {
	case NormalizationOff, NormalizationPeak:
	default:
		return fmt.Errorf("normalization.mode: unsupported value %q (expected off or peak)", n.Mode)
	}
	if n.MinGainDB < 0 {
		return errors.New("normalization.min_gain_db must not be negative")
	}
	if n.MaxGainDB <= 0 {
		return errors.New("normalization.max_gain_db must be positive")
	}
	if n.MaxGainDB > maxGainCeilingDB {
		return fmt.Errorf("normalization.max_gain_db must not exceed %g dB", maxGainCeilingDB)
	}
	if n.MaxGainDB < n.MinGainDB {
		return errors.New("normalization.max_gain_db must be greater than or equal to normalization.min_gain_db")
	}
	return ensurePositiveMap(map[string]int{
		"normalization.timeout_seconds": n.TimeoutSeconds,
		"tools.probe_timeout_seconds":   c.Tools.ProbeTimeoutSeconds,
		"tools.remux_timeout_seconds":   c.Tools.RemuxTimeoutSeconds,
	})
}

func (c *Config) validateVideo() error {
	if c.Video.Encode && len(c.Video.EncodingOptions) == 0 {
		return errors.New("video.encoding_options must be set when video.encode is true")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	var invalid []string
	for key, value := range values {
		if value <= 0 {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	slices.Sort(invalid)
	return fmt.Errorf("%s must be positive", strings.Join(invalid, ", "))
}
