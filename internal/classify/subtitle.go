package classify

import (
	"strings"

	"muxprep/internal/track"
)

// Subtitle formats.
const (
	FormatPGS    = "pgs"
	FormatSRT    = "srt"
	FormatASS    = "ass"
	FormatVobSub = "vobsub"
)

// Subtitle types, highest priority first.
const (
	TypeForced = "forced"
	TypeSDH    = "sdh"
	TypeCC     = "cc"
	TypeNormal = "normal"
)

var subtitleFormats = []rule[string, string]{
	{FormatPGS, func(c string) bool { return containsAny(c, "pgs", "s_hdmv") }},
	{FormatSRT, func(c string) bool { return containsAny(c, "srt", "subrip", "s_text") }},
	{FormatASS, func(c string) bool { return containsAny(c, "ass", "s_ssa") }},
	{FormatVobSub, func(c string) bool { return containsAny(c, "vobsub", "s_vobsub") }},
}

// SubtitleFormat maps a codec identifier to a subtitle format name. Unknown
// codecs are returned lower-cased.
func SubtitleFormat(codec string) string {
	lowered := strings.ToLower(strings.TrimSpace(codec))
	if format, ok := firstMatch(subtitleFormats, lowered); ok {
		return format
	}
	return lowered
}

var subtitleTypes = []rule[string, track.Subtitle]{
	{TypeForced, IsForced},
	{TypeSDH, IsSDH},
	{TypeCC, IsCC},
}

// SubtitleType derives forced, sdh, cc or normal from container flags and
// title keywords, in that priority.
func SubtitleType(s track.Subtitle) string {
	if kind, ok := firstMatch(subtitleTypes, s); ok {
		return kind
	}
	return TypeNormal
}

// IsForced reports a forced subtitle. A track whose flags disagree between
// metadata sources is judged by its title alone.
func IsForced(s track.Subtitle) bool {
	if s.Forced && !s.FlagsUnreliable {
		return true
	}
	return containsAny(strings.ToLower(s.Title), "forced", "erzwungen")
}

// IsSDH reports a subtitle for the deaf and hard of hearing.
func IsSDH(s track.Subtitle) bool {
	return s.Disposition.HearingImpaired || containsAny(strings.ToLower(s.Title), "sdh", "hearing impaired")
}

// IsCC reports a closed-caption subtitle.
func IsCC(s track.Subtitle) bool {
	return s.Disposition.Captions || strings.Contains(strings.ToLower(s.Title), "cc")
}
