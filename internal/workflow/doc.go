// Package workflow drives one file at a time through the remux pipeline.
//
// The Processor probes a file, separates its tracks by kind, rejects files
// without video, selects audio and subtitles, plans peak normalization,
// builds the remux plan and hands it to the executor. Every outcome,
// including failures, is written to the history store. A failure on one file
// never aborts the batch; cancellation stops the batch once the current file
// has finished or been interrupted.
//
// Each file runs under its own correlation id so every log line of a file
// can be grepped together.
package workflow
