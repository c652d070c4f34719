// Package normalize decides whether the primary audio track gets a
// peak-normalized companion track and describes how to produce it.
//
// The Planner walks a small state machine (Idle, Analyzing, then Applying,
// Skipped or Failed) around a PeakMeter. VolumeDetector is the ffmpeg
// volumedetect implementation of PeakMeter.
package normalize
