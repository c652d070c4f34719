package mediainfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Track types as reported in the @type field.
const (
	TypeGeneral = "General"
	TypeVideo   = "Video"
	TypeAudio   = "Audio"
	TypeText    = "Text"
	TypeMenu    = "Menu"
)

// Track is one entry of media.track[].
type Track struct {
	Type               string
	Format             string
	FormatCommercial   string
	AdditionalFeatures string
	FormatProfile      string
	CodecID            string
	Language           string
	Title              string
	Channels           int
	// StreamOrder is the container stream index; -1 when not reported.
	StreamOrder int
	Width       int
	Height      int
	FrameRate   string
	// Duration is in seconds.
	Duration float64
	Default  bool
	Forced   bool
}

// Result is the parsed mediainfo report.
type Result struct {
	Tracks []Track
	raw    []byte
}

// RawJSON returns the raw mediainfo JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// Inspect executes mediainfo against path and parses its JSON output.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mediainfo"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("mediainfo inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "--Output=JSON", path) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("mediainfo inspect: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return Parse(output)
}

// Parse extracts tracks from a mediainfo JSON document.
func Parse(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, errors.New("mediainfo parse: invalid JSON")
	}
	tracks := gjson.GetBytes(data, "media.track")
	if !tracks.IsArray() {
		return Result{}, errors.New("mediainfo parse: media.track missing")
	}

	result := Result{raw: append([]byte(nil), data...)}
	for _, entry := range tracks.Array() {
		// Map avoids gjson treating the "@type" key as a modifier.
		fields := entry.Map()
		result.Tracks = append(result.Tracks, Track{
			Type:               str(fields, "@type"),
			Format:             str(fields, "Format"),
			FormatCommercial:   str(fields, "Format_Commercial_IfAny"),
			AdditionalFeatures: str(fields, "Format_AdditionalFeatures"),
			FormatProfile:      str(fields, "Format_Profile"),
			CodecID:            str(fields, "CodecID"),
			Language:           str(fields, "Language"),
			Title:              str(fields, "Title"),
			Channels:           leadingInt(str(fields, "Channels"), 0),
			StreamOrder:        leadingInt(str(fields, "StreamOrder"), -1),
			Width:              leadingInt(str(fields, "Width"), 0),
			Height:             leadingInt(str(fields, "Height"), 0),
			FrameRate:          str(fields, "FrameRate"),
			Duration:           fields["Duration"].Float(),
			Default:            yes(fields, "Default"),
			Forced:             yes(fields, "Forced"),
		})
	}
	return result, nil
}

// Count returns the number of tracks of the given type.
func (r Result) Count(trackType string) int {
	n := 0
	for _, t := range r.Tracks {
		if t.Type == trackType {
			n++
		}
	}
	return n
}

func str(fields map[string]gjson.Result, key string) string {
	return strings.TrimSpace(fields[key].String())
}

func yes(fields map[string]gjson.Result, key string) bool {
	return strings.EqualFold(str(fields, key), "yes")
}

// leadingInt parses values such as "6", "8 / 6" or "0-1" by their first
// number.
func leadingInt(value string, fallback int) int {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return fallback
	}
	return n
}
