package textutil

import "strings"

// unsafeRunes maps characters that are not portable in file names to their
// replacement. Path separators and colons keep a visible dash so "Title: Part"
// stays readable.
var unsafeRunes = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// SanitizeFileName makes name safe to use as a single path segment. Runs of
// whitespace collapse to one space and trailing dots are dropped. The result
// may be empty.
func SanitizeFileName(name string) string {
	replaced := unsafeRunes.Replace(name)
	replaced = strings.Join(strings.Fields(replaced), " ")
	return strings.TrimRight(replaced, ". ")
}
