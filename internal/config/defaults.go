package config

const (
	defaultConfigPath          = "~/.config/muxprep/config.toml"
	defaultInputDir            = "~/media/input"
	defaultOutputDir           = "~/media/output"
	defaultLogDir              = "~/.local/share/muxprep/logs"
	defaultStateDir            = "~/.local/share/muxprep"
	defaultSkipKeyword         = "sample"
	defaultUnknownLanguage     = "de"
	defaultNormalizeMinGainDB  = 0.3
	defaultNormalizeMaxGainDB  = 20.0
	maxGainCeilingDB           = 20.0
	defaultNormalizeBranding   = "[Sky Mix]"
	defaultNormalizeTimeout    = 1800
	defaultProbeTimeoutSeconds = 120
	defaultRemuxTimeoutSeconds = 6 * 60 * 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Normalization modes.
const (
	NormalizationOff  = "off"
	NormalizationPeak = "peak"
)

var (
	defaultExtensions           = []string{".mkv", ".mp4", ".avi"}
	defaultLanguages            = []string{"de", "en"}
	defaultAudioOrder           = []string{"truehd_atmos", "eac3_atmos", "dts_x", "truehd", "dts_hd_ma", "dts_hd_hr", "eac3", "dts", "ac3", "aac"}
	defaultSubtitleFormatOrder  = []string{"pgs", "srt", "ass", "vobsub"}
	defaultSubtitleTypeOrder    = []string{"forced", "normal", "cc", "sdh"}
	defaultSubtitleDefaultLangs = []string{"de", "en"}
	defaultVideoEncodeOptions   = []string{"-c:v", "libx264", "-crf", "18", "-preset", "slow", "-x264-params", "ref=5:bframes=5"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Scan: Scan{
			Extensions:  cloneStrings(defaultExtensions),
			SkipKeyword: defaultSkipKeyword,
		},
		Selection: Selection{
			Languages:                 cloneStrings(defaultLanguages),
			DefaultLanguageForUnknown: defaultUnknownLanguage,
			AudioOrder:                cloneStrings(defaultAudioOrder),
			SubtitleFormatOrder:       cloneStrings(defaultSubtitleFormatOrder),
			SubtitleTypeOrder:         cloneStrings(defaultSubtitleTypeOrder),
			DefaultSubtitleLanguages:  cloneStrings(defaultSubtitleDefaultLangs),
		},
		Normalization: Normalization{
			Mode:           NormalizationPeak,
			MinGainDB:      defaultNormalizeMinGainDB,
			MaxGainDB:      defaultNormalizeMaxGainDB,
			Branding:       defaultNormalizeBranding,
			TimeoutSeconds: defaultNormalizeTimeout,
		},
		Video: Video{
			EncodingOptions: cloneStrings(defaultVideoEncodeOptions),
		},
		Rename: Rename{Enabled: true},
		Tools: Tools{
			FFmpeg:              "ffmpeg",
			FFprobe:             "ffprobe",
			MediaInfo:           "mediainfo",
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
			RemuxTimeoutSeconds: defaultRemuxTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}
