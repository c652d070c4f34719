// Package executor carries out a remux plan with ffmpeg.
//
// Output is written to a hidden partial file next to the destination and
// renamed into place only after ffmpeg succeeds, so a failed or cancelled run
// never leaves a truncated file at the final path. Progress is read from
// ffmpeg's -progress key=value stream.
package executor
