package selection

import (
	"slices"

	"github.com/samber/lo"

	"muxprep/internal/classify"
	"muxprep/internal/config"
	"muxprep/internal/language"
)

// Options carries the selection policy. Languages must be canonical codes.
type Options struct {
	Languages           []string
	DropUnknownLanguage bool
	// UnknownLanguage is the canonical language assumed for tracks without
	// one. Such tracks pass only when it is allow-listed.
	UnknownLanguage          string
	AudioOrder               []string
	SubtitleFormatOrder      []string
	SubtitleTypeOrder        []string
	DefaultSubtitleLanguages []string
	Classify                 classify.Options
}

// OptionsFromConfig builds selection options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	sel := cfg.Selection
	return Options{
		Languages:                slices.Clone(sel.Languages),
		DropUnknownLanguage:      sel.DropUnknownLanguage,
		UnknownLanguage:          sel.DefaultLanguageForUnknown,
		AudioOrder:               slices.Clone(sel.AudioOrder),
		SubtitleFormatOrder:      slices.Clone(sel.SubtitleFormatOrder),
		SubtitleTypeOrder:        slices.Clone(sel.SubtitleTypeOrder),
		DefaultSubtitleLanguages: slices.Clone(sel.DefaultSubtitleLanguages),
		Classify:                 classify.Options{AtmosOverride: slices.Clone(sel.AtmosOverride)},
	}
}

// allowed reports whether a track language passes the allow-list. Tracks
// without a language are matched through UnknownLanguage and are dropped when
// DropUnknownLanguage is set or no fallback is configured.
func (o Options) allowed(lang string) bool {
	if language.IsUnknown(lang) {
		if o.DropUnknownLanguage || language.IsUnknown(o.UnknownLanguage) {
			return false
		}
		lang = o.UnknownLanguage
	}
	return lo.Contains(o.Languages, lang)
}

// languageRank orders allowed languages by their allow-list position; unknown
// languages rank after every listed one.
func (o Options) languageRank(lang string) int {
	return rank(o.Languages, lang)
}

// rank returns the position of value in order, or len(order) when absent.
func rank(order []string, value string) int {
	if idx := lo.IndexOf(order, value); idx >= 0 {
		return idx
	}
	return len(order)
}
