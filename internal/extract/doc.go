// Package extract turns a normalized provider reply into the final review
// text.
//
// A [Chain] is an ordered list of [Strategy] values. The chain evaluates
// predicates in order and commits to the first strategy that can handle the
// reply; a failure inside that strategy is terminal and never falls through
// to a later one. JSON-producing strategies canonicalize their output with
// review.Canonicalize, so every line-comment result has the same byte form.
package extract
