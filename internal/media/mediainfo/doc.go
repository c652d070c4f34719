// Package mediainfo runs mediainfo and extracts the per-track fields needed
// for classification from its JSON output.
package mediainfo
