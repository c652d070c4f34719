// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: stream properties including disposition flags and tags
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Inspect executes ffprobe and returns the parsed Result. The probe package
// merges these streams with mediainfo tracks.
package ffprobe
