package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Scan controls which files the scanner picks up.
type Scan struct {
	Extensions  []string `toml:"extensions"`
	SkipKeyword string   `toml:"skip_keyword"`
}

// Selection contains the track selection policy shared by the audio and
// subtitle selectors.
type Selection struct {
	// Languages is the ordered allow-list; the first entry sorts first.
	Languages           []string `toml:"languages"`
	DropUnknownLanguage bool     `toml:"drop_unknown_language"`
	// DefaultLanguageForUnknown tags tracks without a language in the output.
	DefaultLanguageForUnknown string   `toml:"default_language_for_unknown"`
	AudioOrder                []string `toml:"audio_order"`
	SubtitleFormatOrder       []string `toml:"subtitle_format_order"`
	SubtitleTypeOrder         []string `toml:"subtitle_type_order"`
	// DefaultSubtitleLanguages lists languages whose forced track may become
	// the default subtitle.
	DefaultSubtitleLanguages []string `toml:"default_subtitle_languages"`
	// AtmosOverride treats TrueHD/E-AC-3 tracks in these languages as Atmos.
	AtmosOverride []string `toml:"atmos_override"`
}

// Normalization contains the peak normalization settings.
type Normalization struct {
	Mode           string  `toml:"mode"`
	MinGainDB      float64 `toml:"min_gain_db"`
	MaxGainDB      float64 `toml:"max_gain_db"`
	Branding       string  `toml:"branding"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Video controls whether video streams are copied or re-encoded.
type Video struct {
	Encode          bool     `toml:"encode"`
	EncodingOptions []string `toml:"encoding_options"`
}

// Rename controls output file naming.
type Rename struct {
	Enabled bool `toml:"enabled"`
}

// Tools contains external binary names and probe limits.
type Tools struct {
	FFmpeg              string `toml:"ffmpeg"`
	FFprobe             string `toml:"ffprobe"`
	MediaInfo           string `toml:"mediainfo"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
	RemuxTimeoutSeconds int    `toml:"remux_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Debug contains troubleshooting switches.
type Debug struct {
	DumpMetadata bool `toml:"dump_metadata"`
}

// Config encapsulates all configuration values for muxprep.
//
// Configuration sections by subsystem:
//   - Paths: input, output, log and state directories
//   - Scan: file extensions and the sample-file skip keyword
//   - Selection: language allow-list and priority tables
//   - Normalization: peak normalization thresholds and branding
//   - Video: copy vs re-encode
//   - Rename: episode/edition/source renaming of outputs
//   - Tools: ffmpeg, ffprobe and mediainfo binaries
//   - Logging: log format and level
//   - Debug: metadata dumps
//   - Presets: named overrides applied with --preset
type Config struct {
	Paths         Paths             `toml:"paths"`
	Scan          Scan              `toml:"scan"`
	Selection     Selection         `toml:"selection"`
	Normalization Normalization     `toml:"normalization"`
	Video         Video             `toml:"video"`
	Rename        Rename            `toml:"rename"`
	Tools         Tools             `toml:"tools"`
	Logging       Logging           `toml:"logging"`
	Debug         Debug             `toml:"debug"`
	Presets       map[string]Preset `toml:"presets"`

	// ActivePreset records the preset applied via ApplyPreset.
	ActivePreset string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("muxprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The input
// directory is only checked by preflight since muxprep never writes there.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ProbeTimeout returns the per-file metadata probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Tools.ProbeTimeoutSeconds) * time.Second
}

// RemuxTimeout returns the deadline for one ffmpeg remux.
func (c *Config) RemuxTimeout() time.Duration {
	return time.Duration(c.Tools.RemuxTimeoutSeconds) * time.Second
}

// NormalizationTimeout returns the peak analysis timeout.
func (c *Config) NormalizationTimeout() time.Duration {
	return time.Duration(c.Normalization.TimeoutSeconds) * time.Second
}

// NormalizationEnabled reports whether peak normalization should run.
func (c *Config) NormalizationEnabled() bool {
	return c.Normalization.Mode == NormalizationPeak
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
