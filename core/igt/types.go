// Package igt defines the aligned interlinear document model shared by the
// alignment engine, the renderers, and the audio/export tooling. Format
// handlers and renderers should import these types rather than defining
// their own.
package igt

import "strings"

// Schema identifies one of the supported annotation tier layouts.
type Schema string

// Schema constants.
const (
	// SchemaFourTier is the text/morph/gloss/translation layout where the
	// morph and gloss tiers subdivide a sentence-level text tier.
	SchemaFourTier Schema = "4-tier"

	// SchemaFiveTier adds an unsegmented presentation tier (text0) above a
	// word-level tier (text1) that carries the morpheme boundary markers.
	SchemaFiveTier Schema = "5-tier"

	// SchemaWord is the word-based layout where word and gloss tiers are
	// independently time-aligned with no annotation references between them.
	SchemaWord Schema = "3-tier-word"
)

var validSchemas = map[Schema]bool{
	SchemaFourTier: true,
	SchemaFiveTier: true,
	SchemaWord:     true,
}

// IsValid returns true if the schema is one of the supported layouts.
func (s Schema) IsValid() bool {
	return validSchemas[s]
}

// TierRole is the logical role a physical ELAN tier plays in a schema.
type TierRole string

// Tier role constants.
const (
	RoleText        TierRole = "text"
	RoleText0       TierRole = "text0"
	RoleText1       TierRole = "text1"
	RoleMorph       TierRole = "morph"
	RoleWord        TierRole = "word"
	RoleGloss       TierRole = "gloss"
	RoleTranslation TierRole = "translation"
)

// Roles returns the logical roles a schema requires, in display order.
func (s Schema) Roles() []TierRole {
	switch s {
	case SchemaFourTier:
		return []TierRole{RoleText, RoleMorph, RoleGloss, RoleTranslation}
	case SchemaFiveTier:
		return []TierRole{RoleText0, RoleText1, RoleMorph, RoleGloss, RoleTranslation}
	case SchemaWord:
		return []TierRole{RoleText, RoleWord, RoleGloss, RoleTranslation}
	}
	return nil
}

// PrimaryRole returns the role whose tier drives sentence segmentation.
func (s Schema) PrimaryRole() TierRole {
	if s == SchemaFiveTier {
		return RoleText0
	}
	return RoleText
}

// MorphRole returns the role that supplies morpheme (or word) tokens.
func (s Schema) MorphRole() TierRole {
	if s == SchemaWord {
		return RoleWord
	}
	return RoleMorph
}

// SegmentedRole returns the role whose tokens still carry the "-"/"="
// boundary markers, used by boundary restoration. For the word schema the
// word tokens themselves carry the markers.
func (s Schema) SegmentedRole() TierRole {
	switch s {
	case SchemaFiveTier:
		return RoleText1
	case SchemaWord:
		return RoleWord
	default:
		return RoleText
	}
}

// TierMap maps logical roles to the physical tier names authored in the
// source file (e.g. RoleText -> "text@KS").
type TierMap map[TierRole]string

// Validate checks that every role the schema requires has a mapping.
func (m TierMap) Validate(schema Schema) error {
	for _, role := range schema.Roles() {
		if m[role] == "" {
			return &MissingTierError{Role: role}
		}
	}
	return nil
}

// Annotation is the smallest annotated unit: a content string over a time
// span, optionally referencing a parent annotation in another tier.
// Annotations are immutable once extracted.
type Annotation struct {
	// ID is the source annotation identifier (e.g. "a23").
	ID string

	// ParentID is the identifier of the referenced annotation, empty for
	// time-alignable annotations.
	ParentID string

	// Content is the whitespace-trimmed annotation value.
	Content string

	// StartMs and EndMs are the time span in milliseconds.
	StartMs int
	EndMs   int
}

// IsBlank reports whether the annotation carries no usable content.
func (a Annotation) IsBlank() bool {
	return strings.TrimSpace(a.Content) == ""
}

// Tier is a named, time-ordered sequence of annotations.
type Tier struct {
	// Name is the physical tier name from the source.
	Name string

	// Role is the logical role this tier was extracted for.
	Role TierRole

	// Annotations are sorted by start time.
	Annotations []Annotation
}

// Boundary describes how a morpheme attaches to the preceding one.
type Boundary string

// Boundary constants.
const (
	// BoundaryWord marks a word-initial morpheme (no attachment).
	BoundaryWord Boundary = ""
	// BoundaryAffix marks an affix boundary ("-").
	BoundaryAffix Boundary = "-"
	// BoundaryClitic marks a clitic boundary ("=").
	BoundaryClitic Boundary = "="
)

// MorphUnit is one morpheme token with its restored leading boundary.
type MorphUnit struct {
	Content  string
	Boundary Boundary
}

// GlossUnit is one gloss token, positionally aligned 1:1 with a MorphUnit.
type GlossUnit struct {
	Content string

	// SmallCaps marks an abbreviation gloss (upper-case in the source)
	// destined for small-caps rendering. Lexical glosses are left as-is.
	SmallCaps bool
}

// Sentence is one aligned sentence: the authoritative text span plus the
// cross-tier tokens collected for it. Sentences are constructed once by the
// builder and never mutated afterwards.
type Sentence struct {
	// Index is the 0-based position within the document.
	Index int

	// StartMs and EndMs give the sentence time range [StartMs, EndMs),
	// which is also the audio clip range.
	StartMs int
	EndMs   int

	// Text is the concatenated primary-tier text, terminated by a sentence
	// mark except possibly for the final sentence of a document.
	Text string

	// SegmentedText is the word-level text with boundary markers intact
	// (text1 in the 5-tier schema). Empty when it coincides with Text.
	SegmentedText string

	// Morphemes and Glosses are 1:1 aligned. Both are nil when the
	// sentence was skipped.
	Morphemes []MorphUnit
	Glosses   []GlossUnit

	// Translation is the free translation, possibly empty.
	Translation string

	// Skipped marks a sentence excluded from structured output after an
	// alignment failure. Its translation is still preserved.
	Skipped bool

	// SkipReason briefly states why the sentence was skipped.
	SkipReason string
}

// Words regroups the sentence's morphemes into words: a new word starts at
// every BoundaryWord unit.
func (s *Sentence) Words() [][]MorphUnit {
	var words [][]MorphUnit
	for _, m := range s.Morphemes {
		if m.Boundary == BoundaryWord || len(words) == 0 {
			words = append(words, []MorphUnit{m})
			continue
		}
		words[len(words)-1] = append(words[len(words)-1], m)
	}
	return words
}

// Document is the root aligned artifact: the ordered sentence list plus the
// configuration used to build it. It is the sole structure handed to
// renderers and audio extraction.
type Document struct {
	// SourcePath is the path of the annotation file this was built from.
	SourcePath string

	// SourceHash is the BLAKE3 hex digest of the source file bytes.
	SourceHash string

	// Schema and Tiers record the configuration used for alignment.
	Schema Schema
	Tiers  TierMap

	// Sentences are ordered by start time.
	Sentences []Sentence
}

// Aligned returns the sentences that survived alignment.
func (d *Document) Aligned() []Sentence {
	out := make([]Sentence, 0, len(d.Sentences))
	for _, s := range d.Sentences {
		if !s.Skipped {
			out = append(out, s)
		}
	}
	return out
}

// SentenceDiagnostic records one skipped sentence for the run report.
type SentenceDiagnostic struct {
	Index   int    `json:"index"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Reason  string `json:"reason"`
}

// Report collects per-document diagnostics from one conversion run. It is
// returned alongside the (possibly partial) document so the boundary between
// aligned sentences and those needing manual review is explicit.
type Report struct {
	// RunID uniquely identifies the conversion run.
	RunID string `json:"run_id"`

	// Source is the annotation file the run processed.
	Source string `json:"source"`

	// Total and Skipped count emitted and excluded sentences.
	Total   int `json:"total"`
	Skipped int `json:"skipped"`

	// Diagnostics lists every skipped sentence with its reason.
	Diagnostics []SentenceDiagnostic `json:"diagnostics,omitempty"`
}
