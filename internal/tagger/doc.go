// Package tagger infers tags for an image from its generation prompt
// and its pixel dimensions. Matching against the configured vocabulary
// is forgiving: a tag applies on a direct substring hit or when a
// prompt token is nearly identical to it.
package tagger
