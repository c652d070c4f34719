package classify

import (
	"fmt"
	"slices"
	"strings"

	"muxprep/internal/track"
)

// Family is the audio codec family.
type Family string

const (
	FamilyTrueHD  Family = "truehd"
	FamilyEAC3    Family = "eac3"
	FamilyAC3     Family = "ac3"
	FamilyDTS     Family = "dts"
	FamilyAAC     Family = "aac"
	FamilyUnknown Family = "unknown"
)

// Variant marks spatial audio or a DTS sub-format.
type Variant string

const (
	VariantNone  Variant = ""
	VariantAtmos Variant = "atmos"
	VariantX     Variant = "x"
	VariantHDMA  Variant = "hd_ma"
	VariantHDHR  Variant = "hd_hr"
)

// UnknownAudioLabel is the title given to tracks without a display mapping.
const UnknownAudioLabel = "Unknown Audio"

// AudioType is the semantic audio type of a track.
type AudioType struct {
	Family       Family
	Variant      Variant
	ChannelClass int
}

// Base renders the type without the channel class, e.g. "truehd_atmos".
func (t AudioType) Base() string {
	if t.Variant == VariantNone {
		return string(t.Family)
	}
	return string(t.Family) + "_" + string(t.Variant)
}

// String renders the full semantic type, e.g. "eac3_atmos_5".
func (t AudioType) String() string {
	return fmt.Sprintf("%s_%d", t.Base(), t.ChannelClass)
}

// Known reports whether the codec family was recognized.
func (t AudioType) Known() bool {
	return t.Family != FamilyUnknown && t.Family != ""
}

// Options tunes classification.
type Options struct {
	// AtmosOverride lists canonical languages whose TrueHD and E-AC-3 tracks
	// are treated as Atmos regardless of their metadata.
	AtmosOverride []string
}

type audioFields struct {
	codec      string
	features   string
	commercial string
	title      string
}

var codecFamilies = []rule[Family, string]{
	{FamilyTrueHD, func(c string) bool { return containsAny(c, "truehd", "mlp fba") }},
	{FamilyEAC3, func(c string) bool { return containsAny(c, "eac3", "e-ac-3", "ec-3") }},
	{FamilyAC3, func(c string) bool { return containsAny(c, "ac3", "ac-3") }},
	{FamilyDTS, func(c string) bool { return strings.Contains(c, "dts") }},
	{FamilyAAC, func(c string) bool { return containsAny(c, "aac", "mp4a") }},
}

var dtsVariants = []rule[Variant, audioFields]{
	{VariantX, func(f audioFields) bool {
		return containsAny(f.features, "xll x", "xxl x") || strings.Contains(f.commercial, "dts:x")
	}},
	{VariantHDMA, func(f audioFields) bool {
		return strings.Contains(f.codec, "dts-hd ma") || containsAny(f.commercial, "dts-hd master audio", "dts-hd ma")
	}},
	{VariantHDHR, func(f audioFields) bool {
		return strings.Contains(f.codec, "dts-hd hr") || containsAny(f.commercial, "dts-hd high resolution", "dts-hd hr")
	}},
}

var atmosMarkers = []rule[Variant, audioFields]{
	{VariantAtmos, func(f audioFields) bool { return containsAny(f.features, "joc", "16-ch") }},
	{VariantAtmos, func(f audioFields) bool { return strings.Contains(f.title, "atmos") }},
}

// Audio derives the semantic audio type of a track. The codec family is
// matched against the codec identifier first and the format name second.
func Audio(a track.Audio, opts Options) AudioType {
	fields := audioFields{
		codec:      strings.ToLower(strings.TrimSpace(a.Codec)),
		features:   strings.ToLower(a.AdditionalFeatures),
		commercial: strings.ToLower(a.Commercial),
		title:      strings.ToLower(a.Title),
	}

	family, ok := firstMatch(codecFamilies, fields.codec)
	if !ok {
		family, ok = firstMatch(codecFamilies, strings.ToLower(a.Format))
	}
	if !ok {
		family = FamilyUnknown
	}

	result := AudioType{Family: family, ChannelClass: ChannelClass(a.Channels)}
	switch family {
	case FamilyTrueHD, FamilyEAC3:
		if _, atmos := firstMatch(atmosMarkers, fields); atmos || slices.Contains(opts.AtmosOverride, a.Language) {
			result.Variant = VariantAtmos
		}
	case FamilyDTS:
		if variant, matched := firstMatch(dtsVariants, fields); matched {
			result.Variant = variant
		}
	}
	return result
}

// ChannelClass converts a raw channel count to the class used in semantic
// types: stereo stays 2, everything else drops the LFE channel (6 -> 5).
func ChannelClass(channels int) int {
	switch {
	case channels <= 0:
		return 0
	case channels == 2:
		return 2
	default:
		return channels - 1
	}
}

var audioDisplayNames = map[string]string{
	"truehd_atmos_7": "Dolby TrueHD Atmos 7.1",
	"truehd_atmos_5": "Dolby TrueHD Atmos 5.1",
	"truehd_7":       "Dolby TrueHD 7.1",
	"truehd_5":       "Dolby TrueHD 5.1",
	"truehd_2":       "Dolby TrueHD Stereo",

	"eac3_atmos_7": "Dolby Digital Plus Atmos 7.1",
	"eac3_atmos_5": "Dolby Digital Plus Atmos 5.1",
	"eac3_7":       "Dolby Digital Plus 7.1",
	"eac3_5":       "Dolby Digital Plus 5.1",
	"eac3_2":       "Dolby Digital Plus Stereo",

	"ac3_5": "Dolby Digital 5.1",
	"ac3_2": "Dolby Digital Stereo",

	"dts_x_7":     "DTS:X 7.1",
	"dts_x_5":     "DTS:X 5.1",
	"dts_hd_ma_7": "DTS-HD MA 7.1",
	"dts_hd_ma_5": "DTS-HD MA 5.1",
	"dts_hd_ma_2": "DTS-HD MA Stereo",
	"dts_hd_hr_7": "DTS-HD HR 7.1",
	"dts_hd_hr_5": "DTS-HD HR 5.1",
	"dts_hd_hr_2": "DTS-HD HR Stereo",
	"dts_5":       "DTS 5.1",
	"dts_2":       "DTS Stereo",

	"aac_5": "AAC 5.1",
	"aac_2": "Stereo",
}

// AudioDisplayName returns the canonical title for a semantic audio type.
func AudioDisplayName(t AudioType) string {
	if name, ok := audioDisplayNames[t.String()]; ok {
		return name
	}
	return UnknownAudioLabel
}
