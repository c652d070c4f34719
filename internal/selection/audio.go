package selection

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"muxprep/internal/classify"
	"muxprep/internal/track"
)

type audioCandidate struct {
	track    track.Audio
	semantic classify.AudioType
}

// SelectAudio returns the allowed audio tracks in output order. The first
// track is marked default and every track is retitled with the display name
// of its semantic type.
func SelectAudio(tracks []track.Audio, opts Options) []track.Audio {
	kept := lo.Filter(tracks, func(a track.Audio, _ int) bool {
		return opts.allowed(a.Language)
	})
	if len(kept) == 0 {
		return []track.Audio{}
	}

	candidates := lo.Map(kept, func(a track.Audio, _ int) audioCandidate {
		return audioCandidate{track: a, semantic: classify.Audio(a, opts.Classify)}
	})

	slices.SortStableFunc(candidates, func(x, y audioCandidate) int {
		return cmp.Or(
			cmp.Compare(opts.languageRank(x.track.Language), opts.languageRank(y.track.Language)),
			cmp.Compare(y.track.Channels, x.track.Channels),
			cmp.Compare(rank(opts.AudioOrder, x.semantic.Base()), rank(opts.AudioOrder, y.semantic.Base())),
			strings.Compare(strings.ToLower(x.track.Title), strings.ToLower(y.track.Title)),
		)
	})

	out := make([]track.Audio, len(candidates))
	for i, cand := range candidates {
		a := cand.track
		a.Default = i == 0
		a.Title = classify.AudioDisplayName(cand.semantic)
		out[i] = a
	}
	return out
}
