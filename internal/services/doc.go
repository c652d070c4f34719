// Package services defines shared utilities consumed by the per-file workflow
// stages and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file identifiers, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs rejected).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
