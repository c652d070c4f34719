// Package preflight provides readiness checks for the directories and
// external tools muxprep depends on.
//
// These checks run in two contexts:
//   - `muxprep run` calls RunAll before touching any file and aborts on the
//     first failure.
//   - `muxprep check` renders every result as a table.
//
// MediaInfo is optional and never fails a check; the volumedetect filter is
// only verified when peak normalization is enabled.
package preflight
