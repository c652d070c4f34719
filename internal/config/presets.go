package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ErrUnknownPreset is returned when --preset names a preset that is not configured.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset overrides a subset of the configuration for one kind of source
// material. Nil fields leave the base configuration untouched.
type Preset struct {
	Description               string   `toml:"description"`
	Languages                 []string `toml:"languages"`
	DropUnknownLanguage       *bool    `toml:"drop_unknown_language"`
	DefaultLanguageForUnknown *string  `toml:"default_language_for_unknown"`
	AtmosOverride             []string `toml:"atmos_override"`
	Branding                  *string  `toml:"branding"`
	NormalizeAudio            *bool    `toml:"normalize_audio"`
	EncodeVideo               *bool    `toml:"encode_video"`
	EncodingOptions           []string `toml:"encoding_options"`
	RenameFix                 *bool    `toml:"rename_fix"`
}

// PresetNames returns the configured preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := lo.Keys(c.Presets)
	slices.Sort(names)
	return names
}

// ApplyPreset overlays the named preset onto the configuration and validates
// the result. An empty name is a no-op.
func (c *Config) ApplyPreset(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil
	}
	preset, ok := c.Presets[key]
	if !ok {
		return fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, name, strings.Join(c.PresetNames(), ", "))
	}

	if len(preset.Languages) > 0 {
		c.Selection.Languages = cloneStrings(preset.Languages)
	}
	if preset.DropUnknownLanguage != nil {
		c.Selection.DropUnknownLanguage = *preset.DropUnknownLanguage
	}
	if preset.DefaultLanguageForUnknown != nil {
		c.Selection.DefaultLanguageForUnknown = *preset.DefaultLanguageForUnknown
	}
	if preset.AtmosOverride != nil {
		c.Selection.AtmosOverride = cloneStrings(preset.AtmosOverride)
	}
	if preset.Branding != nil {
		c.Normalization.Branding = *preset.Branding
	}
	if preset.NormalizeAudio != nil {
		c.Normalization.Mode = NormalizationOff
		if *preset.NormalizeAudio {
			c.Normalization.Mode = NormalizationPeak
		}
	}
	if preset.EncodeVideo != nil {
		c.Video.Encode = *preset.EncodeVideo
	}
	if len(preset.EncodingOptions) > 0 {
		c.Video.EncodingOptions = cloneStrings(preset.EncodingOptions)
	}
	if preset.RenameFix != nil {
		c.Rename.Enabled = *preset.RenameFix
	}

	c.normalizeSelection()
	c.normalizeNormalization()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", key, err)
	}
	c.ActivePreset = key
	return nil
}
