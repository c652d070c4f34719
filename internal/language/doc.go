// Package language canonicalizes raw language codes reported by probing tools.
//
// A fixed table maps ISO 639-2 bibliographic and terminology codes, ISO 639-1
// codes and English language words to the two-letter codes used throughout
// muxprep. Everything else passes through lower-cased. Empty input maps to the
// Unknown sentinel, never to a real language.
package language
