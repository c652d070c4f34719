package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Unknown is the canonical code for tracks without a usable language.
const Unknown = "und"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/B, used for container tags
	alt3    string   // ISO 639-2/T when it differs
	display string   // name used for subtitle titles
	words   []string // English word forms
}

var languages = []entry{
	{"de", "ger", "deu", "Deutsch", []string{"german", "deutsch"}},
	{"en", "eng", "", "English", []string{"english"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fre", "fra", "French", []string{"french"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		if e.alt3 != "" {
			byCode[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize canonicalizes a raw language value. Known codes map to their
// two-letter form, BCP-47 tags are reduced to their base language, unknown
// codes pass through lower-cased and empty input yields Unknown.
func Normalize(raw string) string {
	code := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "\u0000", "")))
	if code == "" || code == Unknown {
		return Unknown
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if strings.ContainsAny(code, "-_") {
		if base, ok := baseLanguage(code); ok {
			if e := lookup(base); e != nil {
				return e.code2
			}
			return base
		}
	}
	return code
}

func baseLanguage(tag string) (string, bool) {
	parsed, err := xlanguage.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return "", false
	}
	base, confidence := parsed.Base()
	if confidence == xlanguage.No {
		return "", false
	}
	value := base.String()
	if value == "" || value == Unknown {
		return "", false
	}
	return value, true
}

// IsUnknown reports whether code is the Unknown sentinel or empty.
func IsUnknown(code string) bool {
	code = strings.TrimSpace(code)
	return code == "" || code == Unknown
}

// DisplayName returns the human-readable name used in track titles.
// Returns "Unknown" for the sentinel, or the upper-cased code for languages
// outside the table.
func DisplayName(code string) string {
	if IsUnknown(code) {
		return "Unknown"
	}
	if e := lookup(strings.ToLower(strings.TrimSpace(code))); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToISO3 converts a canonical code to the ISO 639-2/B tag written into
// containers. Unknown input returns "und"; unrecognized three-letter codes
// pass through.
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsUnknown(code) {
		return Unknown
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	if parsed, err := xlanguage.Parse(code); err == nil {
		if base, confidence := parsed.Base(); confidence != xlanguage.No {
			if iso3 := base.ISO3(); iso3 != "" {
				return iso3
			}
		}
	}
	return Unknown
}

// NormalizeList canonicalizes a configured allow-list, dropping empty and
// unknown entries and duplicates while keeping the first occurrence order.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		code := Normalize(value)
		if IsUnknown(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	return normalized
}
