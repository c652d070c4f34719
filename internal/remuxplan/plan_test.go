package remuxplan

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"muxprep/internal/normalize"
	"muxprep/internal/services"
	"muxprep/internal/track"
)

func baseInput() Input {
	return Input{
		Source: "/in/movie.mkv",
		Output: "/out/movie.mkv",
		Video:  []track.Video{{Base: track.Base{LocalIndex: 0}, Codec: "V_MPEG4/ISO/AVC"}},
		Audio: []track.Audio{
			{Base: track.Base{Language: "de", LocalIndex: 2, Default: true, Title: "Dolby Digital 5.1"}},
			{Base: track.Base{Language: "en", LocalIndex: 0, Title: "Dolby TrueHD 7.1"}},
		},
		Subtitles: []track.Subtitle{
			{Base: track.Base{Language: "de", LocalIndex: 1, Default: true, Forced: true, Title: "Deutsch Erzwungen"}},
			{Base: track.Base{Language: "en", LocalIndex: 3, Title: "English SDH"}, Disposition: track.Disposition{HearingImpaired: true}},
			{Base: track.Base{Language: "und", LocalIndex: 4, Title: "Unknown"}},
		},
		UnknownLanguage: "de",
	}
}

func TestBuildWithoutNormalization(t *testing.T) {
	plan, err := Build(baseInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Tracks) != 6 {
		t.Fatalf("got %d tracks, want 6", len(plan.Tracks))
	}
	if plan.Count(track.KindAudio) != 2 || plan.Count(track.KindSubtitle) != 3 {
		t.Fatalf("unexpected counts: %+v", plan.Tracks)
	}

	video := plan.Tracks[0]
	if video.Kind != track.KindVideo || video.Codec != CodecCopy {
		t.Fatalf("video = %+v", video)
	}
	first := plan.Tracks[1]
	if first.SourceIndex != 2 || first.OutputIndex != 0 || first.Language != "ger" || first.DispositionValue() != "default" {
		t.Fatalf("first audio = %+v", first)
	}
	second := plan.Tracks[2]
	if second.SourceIndex != 0 || second.OutputIndex != 1 || second.Language != "eng" || second.DispositionValue() != "0" {
		t.Fatalf("second audio = %+v", second)
	}
	forced := plan.Tracks[3]
	if forced.DispositionValue() != "default+forced" {
		t.Fatalf("forced disposition = %q", forced.DispositionValue())
	}
	if plan.Tracks[4].DispositionValue() != "hearing_impaired" {
		t.Fatalf("sdh disposition = %q", plan.Tracks[4].DispositionValue())
	}
	unknown := plan.Tracks[5]
	if unknown.Language != "ger" || unknown.DispositionValue() != "0" {
		t.Fatalf("unknown subtitle = %+v", unknown)
	}
}

func TestBuildWithNormalizationShiftsAudio(t *testing.T) {
	in := baseInput()
	in.Normalized = &normalize.Instruction{
		SourceIndex: 2,
		GainDB:      8.5,
		Codec:       "ac3",
		Bitrate:     "640k",
		Channels:    6,
		Title:       "Dolby Digital 5.1 [Sky Mix]",
		Language:    "de",
	}
	plan, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	audio := plan.Tracks[1:4]
	if !audio[0].Normalized || audio[0].OutputIndex != 0 || audio[0].DispositionValue() != "default" {
		t.Fatalf("normalized track = %+v", audio[0])
	}
	for i, a := range audio[1:] {
		if a.OutputIndex != i+1 {
			t.Fatalf("audio %d output index = %d", i, a.OutputIndex)
		}
		if a.DispositionValue() != "0" {
			t.Fatalf("copied audio should lose default, got %q", a.DispositionValue())
		}
	}
	if audio[1].SourceIndex != 2 || audio[2].SourceIndex != 0 {
		t.Fatal("source indices must be untouched by the shift")
	}

	args := plan.Args()
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-filter_complex [0:a:2]volume=8.5dB[peak_normalized]",
		"-map [peak_normalized] -c:a:0 ac3 -b:a:0 640k",
		"-metadata:s:a:0 title=Dolby Digital 5.1 [Sky Mix]",
		"-map 0:a:2 -c:a:1 copy",
		"-map 0:a:0 -c:a:2 copy",
		"-disposition:a:0 default",
		"-disposition:a:1 0",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q:\n%s", want, joined)
		}
	}
}

func TestArgsLayout(t *testing.T) {
	plan, err := Build(baseInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	args := plan.Args()

	if !slices.Equal(args[:4], []string{"-fflags", "+genpts", "-i", "/in/movie.mkv"}) {
		t.Fatalf("unexpected prefix: %v", args[:4])
	}
	if !slices.Equal(args[len(args)-5:], []string{"-vsync", "cfr", "-max_interleave_delta", "0", "/out/movie.mkv"}) {
		t.Fatalf("unexpected suffix: %v", args[len(args)-5:])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-metadata title= ",
		"-map 0:v:0 -c:v:0 copy",
		"-map 0:s:1 -c:s:0 copy -metadata:s:s:0 title=Deutsch Erzwungen -metadata:s:s:0 language=ger -disposition:s:0 default+forced",
		"-map 0:s:4 -c:s:2 copy",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "filter_complex") {
		t.Fatal("unexpected filter graph without normalization")
	}
	if got := plan.ArgsTo("/tmp/x.mkv"); got[len(got)-1] != "/tmp/x.mkv" {
		t.Fatalf("ArgsTo output = %q", got[len(got)-1])
	}
}

func TestBuildEncodesVideo(t *testing.T) {
	in := baseInput()
	in.EncodeVideo = true
	in.EncodingOptions = []string{"-c:v", "libx264", "-crf", "18"}
	plan, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Args(), " ")
	if !strings.Contains(joined, "-map 0:v:0 -c:v libx264 -crf 18") {
		t.Fatalf("encode options missing:\n%s", joined)
	}
	if strings.Contains(joined, "-c:v:0 copy") {
		t.Fatal("video should not be copied when encoding")
	}
}

func TestBuildRejectsMissingStreams(t *testing.T) {
	in := baseInput()
	in.Video = nil
	if _, err := Build(in); !errors.Is(err, ErrNoVideo) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected no-video validation error, got %v", err)
	}

	in = baseInput()
	in.Audio = nil
	if _, err := Build(in); !errors.Is(err, ErrNoAudio) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected no-audio validation error, got %v", err)
	}
}

func TestUnknownLanguageWithoutFallback(t *testing.T) {
	in := baseInput()
	in.UnknownLanguage = ""
	plan, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := plan.Tracks[5].Language; got != "und" {
		t.Fatalf("language = %q, want und", got)
	}
}

func TestCommandQuotesArguments(t *testing.T) {
	plan, err := Build(baseInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cmd := plan.Command("ffmpeg")
	if !strings.HasPrefix(cmd, "ffmpeg -fflags '+genpts' -i /in/movie.mkv") {
		t.Fatalf("unexpected command: %s", cmd)
	}
	if !strings.Contains(cmd, "'title=Deutsch Erzwungen'") {
		t.Fatalf("title not quoted: %s", cmd)
	}
}
