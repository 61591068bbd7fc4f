package tagger

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"image-browser/internal/logging"
	"image-browser/internal/media"
)

// DefaultThreshold is the minimum similarity between a prompt token
// and a vocabulary tag for the tag to apply.
const DefaultThreshold = 0.9

var (
	// tokenSplit carves a prompt into candidate tokens at the
	// punctuation prompt authors use as separators, plus the BREAK
	// keyword some generation frontends insert.
	tokenSplit = regexp.MustCompile(`(?i)[.,:]|\bBREAK\b`)

	punctuation = regexp.MustCompile(`[.,!?;:(){}\[\]]`)
	whitespace  = regexp.MustCompile(`\s+`)

	quoteReplacer = strings.NewReplacer(
		"’", "'", "`", "'",
		"“", `"`, "”", `"`,
		"…", "...",
	)
)

// Tagger matches a fixed vocabulary against prompts and derives
// orientation, resolution and seed tags from the image itself.
type Tagger struct {
	vocab     []string
	threshold float64
}

// New builds a Tagger over the given vocabulary. Vocabulary entries
// are normalized once here, not per image.
func New(vocab []string) *Tagger {
	normalized := make([]string, 0, len(vocab))
	for _, tag := range vocab {
		if n := Normalize(tag); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &Tagger{
		vocab:     normalized,
		threshold: DefaultThreshold,
	}
}

// Normalize canonicalizes text for matching: Unicode compatibility
// form, lower case, dashes and underscores to spaces, typographic
// quotes straightened, separator punctuation stripped, whitespace
// collapsed.
func Normalize(text string) string {
	text = norm.NFKC.String(strings.ToLower(text))
	text = strings.Trim(text, " \t\n\"'")
	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "_", " ")
	text = quoteReplacer.Replace(text)
	text = punctuation.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Infer returns the tags for an image: vocabulary tags matched against
// the prompt (sorted), then orientation, resolution and the filename
// stem. Dimension probing failures drop the orientation and resolution
// tags but never fail the call.
func (t *Tagger) Infer(path, prompt string) []string {
	promptLower := strings.ToLower(prompt)

	var tokens []string
	for _, token := range tokenSplit.Split(promptLower, -1) {
		if n := Normalize(token); n != "" {
			tokens = append(tokens, n)
		}
	}

	var promptTags []string
	for _, tag := range t.vocab {
		if t.matches(tag, promptLower, tokens) {
			promptTags = append(promptTags, tag)
		}
	}
	sort.Strings(promptTags)

	return append(promptTags, t.imageTags(path)...)
}

// matches reports whether a vocabulary tag applies: a literal
// substring of the prompt, or close enough to one of its tokens.
func (t *Tagger) matches(tag, promptLower string, tokens []string) bool {
	if strings.Contains(promptLower, tag) {
		return true
	}
	for _, token := range tokens {
		if similarity(token, tag) >= t.threshold {
			return true
		}
	}
	return false
}

// imageTags derives orientation, WxH resolution and the filename stem
// (the generation seed for most frontends).
func (t *Tagger) imageTags(path string) []string {
	var tags []string

	dims, err := media.GetImageDimensions(path)
	if err != nil {
		logging.Warn("Tagger: failed to probe dimensions of %s: %v", path, err)
	} else {
		orientation := "portrait"
		if dims.Width >= dims.Height {
			orientation = "landscape"
		}
		tags = append(tags, orientation, fmt.Sprintf("%dx%d", dims.Width, dims.Height))
	}

	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." {
		tags = append(tags, stem)
	}
	return tags
}
