// Package deps resolves the external binaries muxprep shells out to and
// reports their availability and versions for `muxprep check`.
package deps
