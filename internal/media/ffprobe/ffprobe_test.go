package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestStreamTagsAndDisposition(t *testing.T) {
	stream := Stream{
		CodecType:   "subtitle",
		Tags:        map[string]string{"LANGUAGE": " ger ", "title": "Forced"},
		Disposition: map[string]int{"forced": 1, "default": 0},
	}
	if got := stream.Tag("language"); got != "ger" {
		t.Fatalf("language tag = %q", got)
	}
	if got := stream.Tag("title"); got != "Forced" {
		t.Fatalf("title tag = %q", got)
	}
	if !stream.HasDisposition("forced") || stream.HasDisposition("default") || stream.HasDisposition("missing") {
		t.Fatalf("unexpected disposition lookups: %+v", stream.Disposition)
	}
	if !stream.IsSubtitle() {
		t.Fatal("expected subtitle stream")
	}
}

func TestStreamByIndex(t *testing.T) {
	result := Result{Streams: []Stream{{Index: 0, CodecType: "video"}, {Index: 3, CodecType: "subtitle"}}}
	stream, ok := result.StreamByIndex(3)
	if !ok || stream.CodecType != "subtitle" {
		t.Fatalf("StreamByIndex(3) = %+v, %v", stream, ok)
	}
	if _, ok := result.StreamByIndex(7); ok {
		t.Fatal("expected missing stream")
	}
}
