// Package remuxplan assembles selected tracks and an optional normalization
// instruction into an ordered output plan and renders it as ffmpeg arguments.
//
// Build is pure and never starts a process. Output order is fixed: video,
// the normalized audio track, the selected audio tracks, then subtitles.
package remuxplan
