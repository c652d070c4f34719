// Package selection filters, orders, deduplicates and relabels audio and
// subtitle tracks according to the configured language allow-list and
// priority tables.
//
// Both selectors are pure: they copy their input, never fail, and return an
// empty slice for empty input. Ordering is stable so ties keep source order.
package selection
