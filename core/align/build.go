package align

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldnote/igt/core/igt"
)

// Options configures a conversion run.
type Options struct {
	// Schema selects the tier layout.
	Schema igt.Schema

	// Tiers maps logical roles to physical tier names. Every role the
	// schema requires must be mapped.
	Tiers igt.TierMap

	// SourcePath and SourceHash identify the annotation file; both are
	// carried into the document unmodified.
	SourcePath string
	SourceHash string
}

// Build runs the full alignment pipeline: extract tiers, segment the
// primary tier into sentences, align and boundary-restore each sentence,
// and assemble the document.
//
// Tier-level failures (missing or empty required tier) abort before any
// sentence is built. Sentence-level failures skip the sentence, keeping
// its text, time range and translation, and are collected into the report;
// processing always continues with the remaining sentences. The caller
// receives both the best-effort document and the skip diagnostics.
func Build(src Source, opts Options) (*igt.Document, *igt.Report, error) {
	if !opts.Schema.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown schema %q", igt.ErrBadInput, opts.Schema)
	}

	tiers, err := Extract(src, opts.Schema, opts.Tiers)
	if err != nil {
		return nil, nil, err
	}

	doc := &igt.Document{
		SourcePath: opts.SourcePath,
		SourceHash: opts.SourceHash,
		Schema:     opts.Schema,
		Tiers:      opts.Tiers,
	}
	report := &igt.Report{
		RunID:  uuid.NewString(),
		Source: opts.SourcePath,
	}

	spans := Segment(tiers[opts.Schema.PrimaryRole()])
	prevEnd := -1
	for i, span := range spans {
		s, err := alignSentence(opts.Schema, tiers, span, i)
		if err != nil {
			if !errors.Is(err, igt.ErrAlignment) {
				return nil, nil, err
			}
			skipSentence(&s, report, err.Error())
		}
		// Time-range defects are data quality, not bugs: the annotation
		// source degrades unvalued slots and dangling refs to zero times.
		if !s.Skipped {
			if detail := spanDefect(&s, prevEnd); detail != "" {
				verr := &igt.InvariantError{Index: i, Detail: detail}
				skipSentence(&s, report, verr.Error())
			} else {
				prevEnd = s.EndMs
			}
		}
		doc.Sentences = append(doc.Sentences, s)
	}

	report.Total = len(doc.Sentences)
	report.Skipped = len(report.Diagnostics)

	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}
	return doc, report, nil
}

// skipSentence flags a sentence for manual review, strips its structured
// output, and records the diagnostic. Text, time range and translation
// survive the skip.
func skipSentence(s *igt.Sentence, report *igt.Report, reason string) {
	s.Skipped = true
	s.SkipReason = reason
	s.Morphemes = nil
	s.Glosses = nil
	report.Diagnostics = append(report.Diagnostics, igt.SentenceDiagnostic{
		Index:   s.Index,
		StartMs: s.StartMs,
		EndMs:   s.EndMs,
		Reason:  reason,
	})
}

// spanDefect reports what is wrong with an aligned sentence's time range
// relative to the previously emitted sentence, or "" when it is sound.
func spanDefect(s *igt.Sentence, prevEnd int) string {
	if s.EndMs <= s.StartMs {
		return "degenerate time range"
	}
	if s.StartMs < prevEnd {
		return "sentence spans overlap"
	}
	return ""
}
