// Package export persists conversion results outside the rendered
// text: a queryable SQLite database and a JSON dump of the aligned
// document with its report.
package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/fieldnote/igt/core/igt"
)

// Bundle pairs the document with the run report for serialization.
type Bundle struct {
	Document *igt.Document `json:"document"`
	Report   *igt.Report   `json:"report"`
}

// JSON writes the document and report as one indented JSON object.
func JSON(doc *igt.Document, report *igt.Report, path string) error {
	data, err := json.MarshalIndent(Bundle{Document: doc, Report: report}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sentences (
	idx          INTEGER PRIMARY KEY,
	start_ms     INTEGER NOT NULL,
	end_ms       INTEGER NOT NULL,
	text         TEXT NOT NULL,
	segmented    TEXT NOT NULL DEFAULT '',
	translation  TEXT NOT NULL DEFAULT '',
	skipped      INTEGER NOT NULL DEFAULT 0,
	skip_reason  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS morphemes (
	sentence_idx INTEGER NOT NULL REFERENCES sentences(idx),
	pos          INTEGER NOT NULL,
	content      TEXT NOT NULL,
	boundary     TEXT NOT NULL,
	gloss        TEXT NOT NULL,
	small_caps   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (sentence_idx, pos)
);
CREATE TABLE IF NOT EXISTS runs (
	run_id   TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	hash     TEXT NOT NULL,
	schema   TEXT NOT NULL,
	total    INTEGER NOT NULL,
	skipped  INTEGER NOT NULL
);
`

// SQLite writes the document into a SQLite database at path, creating
// the tables when absent. All rows land in one transaction so a failed
// export leaves no partial state.
func SQLite(doc *igt.Document, report *igt.Report, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAll(tx, doc, report); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAll(tx *sql.Tx, doc *igt.Document, report *igt.Report) error {
	sentStmt, err := tx.Prepare(`INSERT OR REPLACE INTO sentences
		(idx, start_ms, end_ms, text, segmented, translation, skipped, skip_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sentStmt.Close()

	morphStmt, err := tx.Prepare(`INSERT OR REPLACE INTO morphemes
		(sentence_idx, pos, content, boundary, gloss, small_caps)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer morphStmt.Close()

	for _, s := range doc.Sentences {
		if _, err := sentStmt.Exec(
			s.Index, s.StartMs, s.EndMs, s.Text, s.SegmentedText,
			s.Translation, boolInt(s.Skipped), s.SkipReason,
		); err != nil {
			return fmt.Errorf("sentence %d: %w", s.Index, err)
		}
		for i, m := range s.Morphemes {
			g := s.Glosses[i]
			if _, err := morphStmt.Exec(
				s.Index, i, m.Content, string(m.Boundary), g.Content, boolInt(g.SmallCaps),
			); err != nil {
				return fmt.Errorf("sentence %d morpheme %d: %w", s.Index, i, err)
			}
		}
	}

	if report != nil {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
			(run_id, source, hash, schema, total, skipped)
			VALUES (?, ?, ?, ?, ?, ?)`,
			report.RunID, doc.SourcePath, doc.SourceHash, string(doc.Schema),
			report.Total, report.Skipped,
		); err != nil {
			return fmt.Errorf("run record: %w", err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
