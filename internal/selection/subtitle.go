package selection

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"muxprep/internal/classify"
	"muxprep/internal/language"
	"muxprep/internal/track"
)

type subtitleCandidate struct {
	track  track.Subtitle
	kind   string
	format string
}

type subtitleGroup struct {
	language string
	kind     string
}

// SelectSubtitles keeps one subtitle per (language, type) pair, choosing the
// preferred format, and returns the survivors in output order with cleared
// role flags and normalized titles. Only the first forced track in a default
// subtitle language is marked default.
func SelectSubtitles(tracks []track.Subtitle, opts Options) []track.Subtitle {
	kept := lo.Filter(tracks, func(s track.Subtitle, _ int) bool {
		return opts.allowed(s.Language)
	})
	if len(kept) == 0 {
		return []track.Subtitle{}
	}

	candidates := lo.Map(kept, func(s track.Subtitle, _ int) subtitleCandidate {
		return subtitleCandidate{
			track:  s,
			kind:   classify.SubtitleType(s),
			format: classify.SubtitleFormat(s.Codec),
		}
	})

	// Best format first so UniqBy keeps the preferred track of each group.
	slices.SortStableFunc(candidates, func(x, y subtitleCandidate) int {
		return cmp.Compare(rank(opts.SubtitleFormatOrder, x.format), rank(opts.SubtitleFormatOrder, y.format))
	})
	survivors := lo.UniqBy(candidates, func(c subtitleCandidate) subtitleGroup {
		return subtitleGroup{language: c.track.Language, kind: c.kind}
	})

	slices.SortStableFunc(survivors, func(x, y subtitleCandidate) int {
		return cmp.Or(
			cmp.Compare(opts.languageRank(x.track.Language), opts.languageRank(y.track.Language)),
			cmp.Compare(rank(opts.SubtitleTypeOrder, x.kind), rank(opts.SubtitleTypeOrder, y.kind)),
			cmp.Compare(rank(opts.SubtitleFormatOrder, x.format), rank(opts.SubtitleFormatOrder, y.format)),
			strings.Compare(strings.ToLower(x.track.Title), strings.ToLower(y.track.Title)),
		)
	})

	out := make([]track.Subtitle, len(survivors))
	defaultAssigned := false
	for i, cand := range survivors {
		s := cand.track
		s.Default = false
		s.Disposition.Original = false
		s.Disposition.Karaoke = false
		s.Disposition.Dub = false
		s.Disposition.Lyrics = false
		s.Disposition.Commentary = false

		forced := cand.kind == classify.TypeForced
		s.Forced = forced
		if forced && !defaultAssigned && lo.Contains(opts.DefaultSubtitleLanguages, s.Language) {
			s.Default = true
			defaultAssigned = true
		}
		s.Title = subtitleTitle(cand.track)
		out[i] = s
	}
	return out
}

// subtitleTitle renders the language display name with role suffixes. The
// suffixes come from the individual role checks, so a forced SDH track is
// titled "English Forced SDH".
func subtitleTitle(s track.Subtitle) string {
	title := language.DisplayName(s.Language)
	if classify.IsForced(s) {
		if s.Language == "de" {
			title += " Erzwungen"
		} else {
			title += " Forced"
		}
	}
	switch {
	case classify.IsSDH(s):
		title += " SDH"
	case classify.IsCC(s):
		title += " CC"
	}
	return title
}
