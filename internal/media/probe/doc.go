// Package probe is the metadata provider. It combines mediainfo tracks,
// which carry the format details classification needs, with ffprobe
// streams, which carry subtitle disposition flags, into one track list.
//
// When the two sources disagree on a subtitle's default or forced flag the
// provider records a Warning and marks the track FlagsUnreliable. Without a
// mediainfo binary the track list is built from ffprobe alone.
package probe
