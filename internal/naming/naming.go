package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"muxprep/internal/textutil"
)

// OutputExt is the container extension of every output.
const OutputExt = ".mkv"

// UnknownTitle stands in for a missing episode title.
const UnknownTitle = "Unknown"

var episodePattern = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])s(\d{1,2})e(\d{1,3})`)

var tokenSplitter = regexp.MustCompile(`[.\s_\-\[\]()]+`)

// releaseTokens end the episode title; everything after them is release
// metadata.
var releaseTokens = []string{
	"480p", "576p", "720p", "1080p", "1080i", "2160p", "4k", "uhd",
	"german", "ger", "deutsch", "english", "eng", "dl", "ml", "multi", "dubbed", "subbed",
	"web", "webrip", "webdl", "web-dl", "bluray", "bdrip", "brrip", "remux", "hdtv",
	"x264", "x265", "h264", "h265", "hevc", "avc", "av1",
	"dd51", "ddp51", "dts", "truehd", "atmos", "aac", "ac3", "eac3",
	"hdr", "hdr10", "dv", "sdr",
	"extended", "upscale", "upsuhd", "directors", "director",
	"dsnp", "amzn", "amazon", "nf", "atvp", "rtl",
	"repack", "proper", "internal",
}

// Episode holds the parts parsed from a release name.
type Episode struct {
	Season  int
	Episode int
	// Series is the text before the episode marker.
	Series string
	// Title is the episode title after the marker, empty when absent.
	Title string
}

// Marker renders the SxxEyy marker.
func (e Episode) Marker() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Episode)
}

// ParseEpisode extracts season, episode and titles from a base name.
func ParseEpisode(name string) (Episode, bool) {
	loc := episodePattern.FindStringSubmatchIndex(name)
	if loc == nil {
		return Episode{}, false
	}
	season, err := strconv.Atoi(name[loc[2]:loc[3]])
	if err != nil {
		return Episode{}, false
	}
	episode, err := strconv.Atoi(name[loc[4]:loc[5]])
	if err != nil {
		return Episode{}, false
	}
	return Episode{
		Season:  season,
		Episode: episode,
		Series:  cleanTitle(name[:loc[0]], false),
		Title:   cleanTitle(name[loc[1]:], true),
	}, true
}

// cleanTitle joins the words of a dotted release fragment and title-cases
// them. With stopAtRelease the title ends at the first release token.
func cleanTitle(fragment string, stopAtRelease bool) string {
	words := tokenSplitter.Split(fragment, -1)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		if stopAtRelease && isReleaseToken(word) {
			break
		}
		kept = append(kept, word)
	}
	// Casers are stateful, so each call gets its own.
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(kept, " "))
}

func isReleaseToken(word string) bool {
	lower := strings.ToLower(word)
	if slices.Contains(releaseTokens, lower) {
		return true
	}
	// Years after the marker are release metadata.
	if len(lower) == 4 && (strings.HasPrefix(lower, "19") || strings.HasPrefix(lower, "20")) {
		if _, err := strconv.Atoi(lower); err == nil {
			return true
		}
	}
	return false
}

// Options controls OutputName.
type Options struct {
	Enabled bool
	// Exists reports whether a file name is already taken in the output
	// directory. Nil means nothing exists.
	Exists func(name string) bool
}

// OutputName returns the output file name for a source base name.
func OutputName(name string, opts Options) string {
	fallback := sanitize(name) + OutputExt
	if !opts.Enabled {
		return fallback
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "s0") || strings.HasPrefix(lower, "s1") ||
		strings.Contains(lower, "{source-") || strings.Contains(lower, "{edition-") {
		return fallback
	}

	episode, ok := ParseEpisode(name)
	if !ok {
		return fallback
	}
	title := episode.Title
	if title == "" {
		title = UnknownTitle
	}

	upscale := isUpscale(lower)
	extra := ""
	if edition := EditionTag(lower); edition != "" {
		extra += " {edition-" + edition + "}"
	}
	if source := SourceTag(lower, upscale); source != "" {
		extra += " {source-" + source + "}"
	}

	candidate := sanitize(fmt.Sprintf("%s - %s%s", episode.Marker(), title, extra)) + OutputExt
	if opts.Exists != nil && opts.Exists(candidate) && episode.Series != "" {
		candidate = sanitize(fmt.Sprintf("%s - %s - %s%s", episode.Series, episode.Marker(), title, extra)) + OutputExt
	}
	return candidate
}

// ExistsIn returns an Exists function backed by the given directory.
func ExistsIn(dir string) func(string) bool {
	return func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
}

func isUpscale(lower string) bool {
	return strings.Contains(lower, "upsuhd") || strings.Contains(lower, "upscale")
}

// EditionTag returns the edition marker for a lower-cased name.
func EditionTag(lower string) string {
	extended := strings.Contains(lower, "extended")
	upscale := isUpscale(lower)
	switch {
	case extended && upscale:
		return "Extended-Upscale"
	case extended:
		return "Extended"
	case upscale:
		return "Upscale"
	case strings.Contains(lower, "director"):
		return "Director's Cut"
	default:
		return ""
	}
}

// SourceTag returns the source marker for a lower-cased name. The Netflix
// marker must be a whole token since "nf" occurs inside ordinary words.
func SourceTag(lower string, upscale bool) string {
	tokens := tokenSplitter.Split(lower, -1)
	switch {
	case strings.Contains(lower, "dsnp"):
		return "Disney+"
	case strings.Contains(lower, "amazon") || slices.Contains(tokens, "amzn"):
		return "Amazon"
	case slices.Contains(tokens, "nf"):
		return "Netflix"
	case strings.Contains(lower, "atvp"):
		return "ATVP"
	case strings.Contains(lower, "rtl"):
		return "RTL+"
	case strings.Contains(lower, "web"):
		return "Web"
	case strings.Contains(lower, "uhd"):
		if upscale {
			return "BluRay-CHECKHERE"
		}
		return "UHD"
	case strings.Contains(lower, "bluray"):
		return "BluRay"
	default:
		return ""
	}
}

func sanitize(name string) string {
	cleaned := textutil.SanitizeFileName(name)
	if cleaned == "" {
		return UnknownTitle
	}
	return cleaned
}
