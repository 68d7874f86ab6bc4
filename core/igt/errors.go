package igt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes: configuration/input problems
// abort the whole conversion, per-sentence data-quality problems skip the
// sentence and continue.
var (
	// ErrBadInput indicates a configuration or input problem (fatal).
	ErrBadInput = errors.New("bad input")
	// ErrAlignment indicates a per-sentence alignment failure (recoverable).
	ErrAlignment = errors.New("alignment failed")
)

// MissingTierError reports a configured physical tier name that does not
// exist in the source, or a role with no mapping at all.
type MissingTierError struct {
	Role TierRole // logical role that could not be satisfied
	Name string   // physical tier name, empty when the mapping is absent
}

func (e *MissingTierError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("tier %q (%s) not found in source", e.Name, e.Role)
	}
	return fmt.Sprintf("no tier mapped for role %s", e.Role)
}

func (e *MissingTierError) Unwrap() error { return ErrBadInput }

// EmptyTierError reports a required tier with zero annotations.
type EmptyTierError struct {
	Role TierRole
	Name string
}

func (e *EmptyTierError) Error() string {
	return fmt.Sprintf("tier %q (%s) has no annotations", e.Name, e.Role)
}

func (e *EmptyTierError) Unwrap() error { return ErrBadInput }

// CountMismatchError reports unequal morph/gloss token counts within one
// sentence span. The sentence is skipped; trailing tokens are never dropped
// silently.
type CountMismatchError struct {
	Index   int // sentence index
	StartMs int
	EndMs   int
	Morphs  int // morpheme (or word) token count
	Glosses int // gloss token count
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("sentence %d [%d,%d)ms: %d morph tokens but %d gloss tokens",
		e.Index, e.StartMs, e.EndMs, e.Morphs, e.Glosses)
}

func (e *CountMismatchError) Unwrap() error { return ErrAlignment }

// BoundaryMismatchError reports a morpheme sequence that cannot reconstruct
// its word token from the segmented text tier (content drift between tiers).
type BoundaryMismatchError struct {
	Index int    // sentence index
	Word  string // word token being reconstructed
	Morph string // morpheme token that failed to match, empty on shortfall
}

func (e *BoundaryMismatchError) Error() string {
	switch {
	case e.Morph == "":
		return fmt.Sprintf("sentence %d: morphemes exhausted before word %q was reconstructed", e.Index, e.Word)
	case e.Word == "":
		return fmt.Sprintf("sentence %d: morpheme %q left over after all words were reconstructed", e.Index, e.Morph)
	default:
		return fmt.Sprintf("sentence %d: morpheme %q does not match word %q", e.Index, e.Morph, e.Word)
	}
}

func (e *BoundaryMismatchError) Unwrap() error { return ErrAlignment }

// InvariantError reports a structural invariant violation detected when
// assembling or validating a sentence.
type InvariantError struct {
	Index  int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("sentence %d: invariant violated: %s", e.Index, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrAlignment }
