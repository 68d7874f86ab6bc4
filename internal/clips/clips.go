// Package clips cuts one audio clip per aligned sentence from the
// session recording and writes a manifest describing the run.
package clips

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fieldnote/igt/core/igt"
	"github.com/fieldnote/igt/internal/audio"
)

// DefaultPaddingMs is the silence margin added on both sides of each
// clip when the caller does not choose one.
const DefaultPaddingMs = 100

// Options configures clip extraction.
type Options struct {
	// WAVPath is the session recording. OutDir receives the clips and
	// the manifest; it is created if missing.
	WAVPath string
	OutDir  string

	// PaddingMs widens each clip on both sides. Negative means
	// DefaultPaddingMs.
	PaddingMs int64

	// RunID ties the manifest to the conversion report.
	RunID string
}

// Entry records one written clip.
type Entry struct {
	Index   int    `json:"index"`
	File    string `json:"file"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Manifest summarizes an extraction run.
type Manifest struct {
	RunID   string  `json:"run_id,omitempty"`
	Source  string  `json:"source"`
	Padding int64   `json:"padding_ms"`
	Clips   []Entry `json:"clips"`
	Skipped []int   `json:"skipped,omitempty"`
}

// Extract cuts one clip per sentence that carries a usable time range.
// Skipped sentences and sentences without times are recorded in the
// manifest but produce no file. The manifest is written to
// clips.json in OutDir and also returned.
func Extract(doc *igt.Document, opts Options) (*Manifest, error) {
	f, err := audio.Open(opts.WAVPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, err
	}

	pad := opts.PaddingMs
	if pad < 0 {
		pad = DefaultPaddingMs
	}

	m := &Manifest{
		RunID:   opts.RunID,
		Source:  filepath.Base(opts.WAVPath),
		Padding: pad,
	}

	for _, s := range doc.Sentences {
		if s.Skipped || s.EndMs <= s.StartMs {
			m.Skipped = append(m.Skipped, s.Index)
			continue
		}

		data, err := f.Slice(int64(s.StartMs), int64(s.EndMs), pad)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", s.Index, err)
		}

		name := fmt.Sprintf("%03d_%s.wav", s.Index+1, slug(s.Text))
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), data, 0644); err != nil {
			return nil, err
		}
		m.Clips = append(m.Clips, Entry{
			Index:   s.Index,
			File:    name,
			StartMs: s.StartMs,
			EndMs:   s.EndMs,
			Text:    s.Text,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(opts.OutDir, "clips.json"), data, 0644); err != nil {
		return nil, err
	}
	return m, nil
}

const slugMax = 40

// slug derives a filesystem-safe fragment from the sentence text:
// letters and digits survive, runs of anything else collapse to a
// single underscore, and the result is capped at slugMax bytes.
func slug(text string) string {
	var buf strings.Builder
	lastUnderscore := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			buf.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		} else if !lastUnderscore {
			buf.WriteByte('_')
			lastUnderscore = true
		}
		if buf.Len() >= slugMax {
			break
		}
	}
	out := strings.Trim(buf.String(), "_")
	if out == "" {
		return "clip"
	}
	return out
}
