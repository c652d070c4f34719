package remuxplan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"muxprep/internal/language"
	"muxprep/internal/normalize"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

// CodecCopy marks a stream copied without re-encoding.
const CodecCopy = "copy"

// NormalizedLabel is the filter graph output label of the normalized track.
const NormalizedLabel = "peak_normalized"

var (
	// ErrNoVideo is returned when the source has no video stream.
	ErrNoVideo = errors.New("no video tracks")
	// ErrNoAudio is returned when no audio track survived selection.
	ErrNoAudio = errors.New("no audio tracks after selection")
)

// Input gathers everything needed to build a plan.
type Input struct {
	Source string
	Output string
	// Title is written as the container title; empty clears it.
	Title string
	// Duration of the source, used for progress reporting.
	Duration  time.Duration
	Video     []track.Video
	Audio     []track.Audio
	Subtitles []track.Subtitle
	// Normalized is the instruction emitted by the normalization planner.
	Normalized      *normalize.Instruction
	EncodeVideo     bool
	EncodingOptions []string
	// UnknownLanguage tags tracks without a language; empty means "und".
	UnknownLanguage string
}

// OutputTrack is one stream in the output file.
type OutputTrack struct {
	Kind track.Kind
	// SourceIndex is the kind-local input index; -1 for synthesized tracks.
	SourceIndex int
	// OutputIndex is the kind-local output index.
	OutputIndex   int
	Codec         string
	Bitrate       string
	Title         string
	Language      string
	Dispositions  []string
	EncodeOptions []string
	Normalized    bool
}

// DispositionValue renders the ffmpeg disposition argument.
func (t OutputTrack) DispositionValue() string {
	if len(t.Dispositions) == 0 {
		return "0"
	}
	return strings.Join(t.Dispositions, "+")
}

// Plan is the ordered description of one remux.
type Plan struct {
	Source     string
	Output     string
	Title      string
	Duration   time.Duration
	Tracks     []OutputTrack
	Normalized *normalize.Instruction
}

// Count returns the number of output tracks of a kind.
func (p Plan) Count(kind track.Kind) int {
	n := 0
	for _, t := range p.Tracks {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

// Build assembles a plan. It fails when the input has no video or no audio.
func Build(in Input) (Plan, error) {
	if len(in.Video) == 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "plan", "build", "", ErrNoVideo)
	}
	if len(in.Audio) == 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "plan", "build", "", ErrNoAudio)
	}
	if in.EncodeVideo && len(in.EncodingOptions) == 0 {
		return Plan{}, services.Wrap(services.ErrConfiguration, "plan", "build", "video encoding enabled without encoding options", nil)
	}

	plan := Plan{
		Source:   in.Source,
		Output:   in.Output,
		Title:    in.Title,
		Duration: in.Duration,
		Tracks:   make([]OutputTrack, 0, len(in.Video)+len(in.Audio)+len(in.Subtitles)+1),
	}
	tag := func(lang string) string { return languageTag(lang, in.UnknownLanguage) }

	for i, v := range in.Video {
		out := OutputTrack{
			Kind:        track.KindVideo,
			SourceIndex: v.LocalIndex,
			OutputIndex: i,
			Codec:       CodecCopy,
		}
		if in.EncodeVideo {
			out.Codec = ""
			out.EncodeOptions = slices.Clone(in.EncodingOptions)
		}
		plan.Tracks = append(plan.Tracks, out)
	}

	audioOffset := 0
	if n := in.Normalized; n != nil {
		ins := *n
		plan.Normalized = &ins
		plan.Tracks = append(plan.Tracks, OutputTrack{
			Kind:         track.KindAudio,
			SourceIndex:  ins.SourceIndex,
			OutputIndex:  0,
			Codec:        ins.Codec,
			Bitrate:      ins.Bitrate,
			Title:        ins.Title,
			Language:     tag(ins.Language),
			Dispositions: []string{"default"},
			Normalized:   true,
		})
		audioOffset = 1
	}

	for i, a := range in.Audio {
		var dispositions []string
		if a.Default && plan.Normalized == nil {
			dispositions = []string{"default"}
		}
		plan.Tracks = append(plan.Tracks, OutputTrack{
			Kind:         track.KindAudio,
			SourceIndex:  a.LocalIndex,
			OutputIndex:  i + audioOffset,
			Codec:        CodecCopy,
			Title:        a.Title,
			Language:     tag(a.Language),
			Dispositions: dispositions,
		})
	}

	for i, s := range in.Subtitles {
		plan.Tracks = append(plan.Tracks, OutputTrack{
			Kind:         track.KindSubtitle,
			SourceIndex:  s.LocalIndex,
			OutputIndex:  i,
			Codec:        CodecCopy,
			Title:        s.Title,
			Language:     tag(s.Language),
			Dispositions: subtitleDispositions(s),
		})
	}
	return plan, nil
}

func subtitleDispositions(s track.Subtitle) []string {
	flags := []struct {
		set  bool
		name string
	}{
		{s.Default, "default"},
		{s.Forced, "forced"},
		{s.Disposition.HearingImpaired, "hearing_impaired"},
		{s.Disposition.VisualImpaired, "visual_impaired"},
		{s.Disposition.Dub, "dub"},
		{s.Disposition.Original, "original"},
		{s.Disposition.Karaoke, "karaoke"},
		{s.Disposition.Commentary, "comment"},
		{s.Disposition.Lyrics, "lyrics"},
	}
	var out []string
	for _, f := range flags {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

func languageTag(lang, fallback string) string {
	if language.IsUnknown(lang) {
		lang = fallback
	}
	return language.ToISO3(lang)
}

// Args renders the ffmpeg arguments writing to the plan's output path.
func (p Plan) Args() []string {
	return p.ArgsTo(p.Output)
}

// ArgsTo renders the ffmpeg arguments writing to output.
func (p Plan) ArgsTo(output string) []string {
	args := []string{"-fflags", "+genpts", "-i", p.Source}
	if n := p.Normalized; n != nil {
		args = append(args, "-filter_complex", fmt.Sprintf("[0:a:%d]volume=%sdB[%s]", n.SourceIndex, formatGain(n.GainDB), NormalizedLabel))
	}
	args = append(args, "-metadata", "title="+p.Title)

	for _, t := range p.Tracks {
		spec := t.Kind.Specifier()
		stream := fmt.Sprintf("%s:%d", spec, t.OutputIndex)
		if t.Normalized {
			args = append(args, "-map", "["+NormalizedLabel+"]")
		} else {
			args = append(args, "-map", fmt.Sprintf("0:%s:%d", spec, t.SourceIndex))
		}

		switch {
		case len(t.EncodeOptions) > 0:
			args = append(args, t.EncodeOptions...)
		default:
			args = append(args, "-c:"+stream, t.Codec)
		}
		if t.Bitrate != "" {
			args = append(args, "-b:"+stream, t.Bitrate)
		}
		if t.Kind == track.KindVideo {
			continue
		}
		args = append(args,
			"-metadata:s:"+stream, "title="+t.Title,
			"-metadata:s:"+stream, "language="+t.Language,
			"-disposition:"+stream, t.DispositionValue(),
		)
	}

	args = append(args, "-vsync", "cfr", "-max_interleave_delta", "0", output)
	return args
}

// Command renders the full command line for display.
func (p Plan) Command(binary string) string {
	parts := append([]string{binary}, p.Args()...)
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t'\"[]+") {
			parts[i] = "'" + strings.ReplaceAll(part, "'", `'\''`) + "'"
		}
	}
	return strings.Join(parts, " ")
}

func formatGain(gain float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", gain), "0"), ".")
}
