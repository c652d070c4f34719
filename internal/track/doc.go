// Package track defines the per-stream records the selection engine works on.
//
// Tracks form a closed sum type over General, Video, Audio and Subtitle;
// switches over Track are expected to be exhaustive. Separate splits a merged
// probe result into per-kind slices and assigns the dense LocalIndex that is
// the only valid way to refer back into the source container.
package track
