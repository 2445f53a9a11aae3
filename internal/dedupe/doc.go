// Package dedupe provides a single-use cache: each stored entry can be taken
// at most once before it expires, which makes replayed keys detectable.
package dedupe
