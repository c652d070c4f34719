// Package classify derives semantic tags from raw track fields.
//
// Every cascade (audio codec family, DTS variant, subtitle format, subtitle
// type) is an ordered rule table evaluated first-match-wins, so the priority
// order is data rather than nested conditionals. All functions are pure and
// total: unrecognized input yields an explicit unknown tag.
package classify
