package probe

import (
	"math"
	"slices"
	"strings"
	"time"

	"muxprep/internal/media/ffprobe"
	"muxprep/internal/media/mediainfo"
	"muxprep/internal/track"
)

// merge converts mediainfo tracks and joins Text tracks to ffprobe subtitle
// streams by StreamOrder.
func merge(path string, mi mediainfo.Result, ff ffprobe.Result, haveFFprobe bool) Report {
	report := Report{Path: path, Source: SourceCombined}
	if !haveFFprobe {
		report.Source = "mediainfo"
	}

	entries := slices.Clone(mi.Tracks)
	// General has no StreamOrder; everything else follows container order.
	slices.SortStableFunc(entries, func(a, b mediainfo.Track) int {
		return streamRank(a) - streamRank(b)
	})

	for _, entry := range entries {
		base := track.Base{
			Language:    entry.Language,
			Title:       entry.Title,
			StreamOrder: entry.StreamOrder,
			Default:     entry.Default,
			Forced:      entry.Forced,
		}
		switch entry.Type {
		case mediainfo.TypeGeneral:
			report.Duration = seconds(entry.Duration)
			report.Tracks = append(report.Tracks, &track.General{Base: base, Format: entry.Format, Duration: report.Duration})
		case mediainfo.TypeVideo:
			report.Tracks = append(report.Tracks, &track.Video{
				Base:      base,
				Codec:     firstNonEmpty(entry.CodecID, entry.Format),
				Width:     entry.Width,
				Height:    entry.Height,
				FrameRate: entry.FrameRate,
			})
		case mediainfo.TypeAudio:
			report.Tracks = append(report.Tracks, &track.Audio{
				Base:               base,
				Codec:              entry.CodecID,
				Format:             entry.Format,
				Channels:           entry.Channels,
				AdditionalFeatures: entry.AdditionalFeatures,
				Commercial:         firstNonEmpty(entry.FormatCommercial, entry.FormatProfile),
			})
		case mediainfo.TypeText:
			sub := &track.Subtitle{Base: base, Codec: firstNonEmpty(entry.CodecID, entry.Format)}
			if stream, ok := ff.StreamByIndex(entry.StreamOrder); ok && haveFFprobe && stream.IsSubtitle() {
				sub.Disposition = dispositionOf(stream)
				report.Warnings = append(report.Warnings, compareFlags(sub, stream)...)
			}
			report.Tracks = append(report.Tracks, sub)
		}
	}
	return report
}

func compareFlags(sub *track.Subtitle, stream ffprobe.Stream) []Warning {
	var warnings []Warning
	if ffDefault := stream.HasDisposition("default"); ffDefault != sub.Default {
		warnings = append(warnings, Warning{StreamOrder: sub.StreamOrder, Field: "default", MediaInfo: sub.Default, FFprobe: ffDefault})
	}
	if ffForced := stream.HasDisposition("forced"); ffForced != sub.Forced {
		warnings = append(warnings, Warning{StreamOrder: sub.StreamOrder, Field: "forced", MediaInfo: sub.Forced, FFprobe: ffForced})
	}
	if len(warnings) > 0 {
		sub.FlagsUnreliable = true
	}
	return warnings
}

func dispositionOf(stream ffprobe.Stream) track.Disposition {
	return track.Disposition{
		HearingImpaired: stream.HasDisposition("hearing_impaired"),
		VisualImpaired:  stream.HasDisposition("visual_impaired"),
		Original:        stream.HasDisposition("original"),
		Dub:             stream.HasDisposition("dub"),
		Karaoke:         stream.HasDisposition("karaoke"),
		Lyrics:          stream.HasDisposition("lyrics"),
		Commentary:      stream.HasDisposition("comment"),
		Captions:        stream.HasDisposition("captions"),
	}
}

// fromFFprobe builds the track list from ffprobe alone. The stream profile
// stands in for the mediainfo commercial name.
func fromFFprobe(path string, ff ffprobe.Result) Report {
	report := Report{Path: path, Source: SourceFFprobe}
	duration := ff.DurationSeconds()
	if !math.IsNaN(duration) {
		report.Duration = seconds(duration)
	}
	report.Tracks = append(report.Tracks, &track.General{
		Base:     track.Base{Title: ff.Format.Tag("title"), StreamOrder: -1},
		Format:   ff.Format.FormatName,
		Duration: report.Duration,
	})

	for _, stream := range ff.Streams {
		base := track.Base{
			Language:    stream.Tag("language"),
			Title:       stream.Tag("title"),
			StreamOrder: stream.Index,
			Default:     stream.HasDisposition("default"),
			Forced:      stream.HasDisposition("forced"),
		}
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if stream.HasDisposition("attached_pic") {
				continue
			}
			report.Tracks = append(report.Tracks, &track.Video{
				Base:      base,
				Codec:     stream.CodecName,
				Width:     stream.Width,
				Height:    stream.Height,
				FrameRate: stream.FrameRate,
			})
		case "audio":
			report.Tracks = append(report.Tracks, &track.Audio{
				Base:               base,
				Codec:              stream.CodecName,
				Format:             stream.CodecLongName,
				Channels:           stream.Channels,
				Commercial:         stream.Profile,
				AdditionalFeatures: profileFeatures(stream.Profile),
			})
		case "subtitle":
			report.Tracks = append(report.Tracks, &track.Subtitle{
				Base:        base,
				Codec:       stream.CodecName,
				Disposition: dispositionOf(stream),
			})
		}
	}
	return report
}

// profileFeatures maps an ffprobe profile onto the mediainfo feature marker
// the classifier reads. ffprobe reports object audio only in the profile
// ("Dolby Digital Plus + Dolby Atmos", "Dolby TrueHD + Dolby Atmos").
func profileFeatures(profile string) string {
	if strings.Contains(strings.ToLower(profile), "atmos") {
		return "JOC"
	}
	return ""
}

func streamRank(t mediainfo.Track) int {
	if t.Type == mediainfo.TypeGeneral {
		return -1
	}
	if t.StreamOrder < 0 {
		return math.MaxInt32
	}
	return t.StreamOrder
}

func seconds(value float64) time.Duration {
	if value <= 0 || math.IsNaN(value) {
		return 0
	}
	return time.Duration(value * float64(time.Second))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
