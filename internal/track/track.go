package track

import (
	"time"

	"muxprep/internal/language"
)

// Kind discriminates the track union.
type Kind int

const (
	KindGeneral Kind = iota
	KindVideo
	KindAudio
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// Specifier returns the ffmpeg stream specifier letter for the kind.
func (k Kind) Specifier() string {
	switch k {
	case KindVideo:
		return "v"
	case KindAudio:
		return "a"
	case KindSubtitle:
		return "s"
	default:
		return ""
	}
}

// Track is implemented by General, Video, Audio and Subtitle only.
type Track interface {
	Kind() Kind
	base() *Base
}

// Base holds the fields every stream carries.
type Base struct {
	// Language is the raw value until Separate canonicalizes it.
	Language string
	Title    string
	// LocalIndex is the zero-based position among tracks of the same kind in
	// source order. Assigned once by Separate.
	LocalIndex int
	// StreamOrder is the container-wide stream index reported by the probe.
	StreamOrder int
	Default     bool
	Forced      bool
	// FlagsUnreliable is set when the probing sources disagree on the
	// default or forced flag.
	FlagsUnreliable bool
}

func (b *Base) base() *Base { return b }

// General describes the container itself.
type General struct {
	Base
	Format   string
	Duration time.Duration
}

func (*General) Kind() Kind { return KindGeneral }

// Video describes a video stream.
type Video struct {
	Base
	Codec     string
	Width     int
	Height    int
	FrameRate string
}

func (*Video) Kind() Kind { return KindVideo }

// Audio describes an audio stream.
type Audio struct {
	Base
	// Codec is the codec identifier (e.g. "A_TRUEHD", "eac3").
	Codec string
	// Format is the human format name (e.g. "E-AC-3"), used when Codec is empty.
	Format   string
	Channels int
	// AdditionalFeatures carries spatial-audio markers such as "JOC" or "XLL X".
	AdditionalFeatures string
	// Commercial carries the commercial or profile name, e.g. "DTS-HD Master Audio".
	Commercial string
}

func (*Audio) Kind() Kind { return KindAudio }

// Disposition holds subtitle role flags beyond default and forced.
type Disposition struct {
	HearingImpaired bool
	VisualImpaired  bool
	Original        bool
	Dub             bool
	Karaoke         bool
	Lyrics          bool
	Commentary      bool
	Captions        bool
}

// Subtitle describes a subtitle stream.
type Subtitle struct {
	Base
	Codec       string
	Disposition Disposition
}

func (*Subtitle) Kind() Kind { return KindSubtitle }

// Set is a probe result split by kind, each slice in source order.
type Set struct {
	General   *General
	Video     []Video
	Audio     []Audio
	Subtitles []Subtitle
}

// Separate splits tracks by kind, assigns LocalIndex per kind and
// canonicalizes languages. Input records are copied; the caller's values are
// never modified. Only the first General record is kept.
func Separate(tracks []Track) Set {
	var set Set
	for _, t := range tracks {
		switch v := t.(type) {
		case *General:
			if set.General == nil {
				g := *v
				set.General = &g
			}
		case *Video:
			c := *v
			c.finalize(len(set.Video))
			set.Video = append(set.Video, c)
		case *Audio:
			c := *v
			c.finalize(len(set.Audio))
			set.Audio = append(set.Audio, c)
		case *Subtitle:
			c := *v
			c.finalize(len(set.Subtitles))
			set.Subtitles = append(set.Subtitles, c)
		}
	}
	return set
}

func (b *Base) finalize(localIndex int) {
	b.LocalIndex = localIndex
	b.Language = language.Normalize(b.Language)
}

// Counts returns the number of video, audio and subtitle tracks.
func (s Set) Counts() (video, audio, subtitles int) {
	return len(s.Video), len(s.Audio), len(s.Subtitles)
}

// BaseOf returns a copy of the shared fields of any track.
func BaseOf(t Track) Base {
	if t == nil {
		return Base{}
	}
	return *t.base()
}
