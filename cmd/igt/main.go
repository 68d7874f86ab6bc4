// Command igt converts ELAN annotation files into interlinear glossed
// text. It renders plain-text and LaTeX (gb4e) examples, cuts
// per-sentence audio clips, and exports aligned sentences to JSON and
// SQLite.
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/fieldnote/igt/core/align"
	"github.com/fieldnote/igt/core/eaf"
	"github.com/fieldnote/igt/core/igt"
	"github.com/fieldnote/igt/internal/archive"
	"github.com/fieldnote/igt/internal/clips"
	"github.com/fieldnote/igt/internal/export"
	"github.com/fieldnote/igt/internal/logging"
	"github.com/fieldnote/igt/internal/render/gb4e"
	"github.com/fieldnote/igt/internal/render/plaintext"
	"github.com/fieldnote/igt/internal/validation"
)

const version = "0.2.0"

// CLI defines the command-line interface for igt.
var CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`
	LogJSON bool `name:"log-json" help:"Emit logs as JSON"`

	Convert ConvertCmd `cmd:"" help:"Convert an ELAN file to interlinear glossed text"`
	Inspect InspectCmd `cmd:"" help:"Survey the tiers of an ELAN file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts an ELAN file to interlinear glossed text.
type ConvertCmd struct {
	Path string `arg:"" help:"Path to .eaf file" type:"existingfile"`

	Schema string            `help:"Tier layout" enum:"4-tier,5-tier,3-tier-word" default:"4-tier"`
	Tier   map[string]string `help:"Role=tier-name overrides (e.g. text=po@KS)"`

	Format string `help:"Output renderings" enum:"text,latex,both,json" default:"text"`
	Out    string `help:"Output directory" type:"path" default:"."`

	Wav       string `help:"Session recording for clip extraction" type:"existingfile"`
	Clips     bool   `help:"Cut one audio clip per sentence"`
	PaddingMs int64  `name:"padding-ms" help:"Clip padding in milliseconds" default:"100"`

	Archive string `help:"Bundle the output directory" enum:",zip,txz" default:""`
	DB      string `help:"Export sentences to a SQLite database" type:"path"`

	SmallCaps bool `name:"smallcaps" help:"Set gloss abbreviations in small caps" default:"true" negatable:""`
	Tipa      bool `help:"Substitute IPA characters with tipa macros in LaTeX output"`
	Preamble  bool `help:"Include a commented LaTeX preamble" default:"true" negatable:""`
}

func (c *ConvertCmd) Run() error {
	log := logging.GetLogger()

	if _, err := validation.CheckFile(c.Path); err != nil {
		return err
	}
	for _, p := range []string{c.Out, c.DB} {
		if p == "" {
			continue
		}
		if err := validation.ValidatePath(p); err != nil {
			return fmt.Errorf("invalid output path %q: %w", p, err)
		}
	}

	src, err := eaf.ParseFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Path, err)
	}

	schema := igt.Schema(c.Schema)
	tiers, err := tierMap(schema, c.Tier)
	if err != nil {
		return err
	}

	doc, report, err := align.Build(src, align.Options{
		Schema:     schema,
		Tiers:      tiers,
		SourcePath: c.Path,
		SourceHash: src.Hash(),
	})
	if err != nil {
		return fmt.Errorf("alignment failed: %w", err)
	}

	log = log.With("run_id", report.RunID)
	log.Info("aligned", "sentences", report.Total, "skipped", report.Skipped)
	for _, d := range report.Diagnostics {
		log.Warn("sentence skipped", "index", d.Index, "start_ms", d.StartMs, "reason", d.Reason)
	}

	if err := os.MkdirAll(c.Out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))

	var written []string
	write := func(name, content string) error {
		path := filepath.Join(c.Out, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if c.Format == "text" || c.Format == "both" {
		out := plaintext.Render(doc, plaintext.Options{SmallCaps: c.SmallCaps})
		if err := write(base+".txt", out); err != nil {
			return err
		}
	}
	if c.Format == "latex" || c.Format == "both" {
		out := gb4e.Render(doc, gb4e.Options{
			SmallCaps: c.SmallCaps,
			Tipa:      c.Tipa,
			Preamble:  c.Preamble,
		})
		if err := write(base+".tex", out); err != nil {
			return err
		}
	}
	if c.Format == "json" {
		path := filepath.Join(c.Out, base+".json")
		if err := export.JSON(doc, report, path); err != nil {
			return err
		}
		written = append(written, path)
	}

	if c.DB != "" {
		if err := export.SQLite(doc, report, c.DB); err != nil {
			return fmt.Errorf("database export failed: %w", err)
		}
		written = append(written, c.DB)
	}

	if c.Clips {
		wav := c.Wav
		if wav == "" {
			wav = mediaPath(c.Path, src.MediaURL)
		}
		if wav == "" {
			return fmt.Errorf("no recording: pass --wav or link media in the ELAN file")
		}
		if _, err := validation.CheckFile(wav); err != nil {
			return err
		}
		m, err := clips.Extract(doc, clips.Options{
			WAVPath:   wav,
			OutDir:    filepath.Join(c.Out, "clips"),
			PaddingMs: c.PaddingMs,
			RunID:     report.RunID,
		})
		if err != nil {
			return fmt.Errorf("clip extraction failed: %w", err)
		}
		log.Info("clips written", "count", len(m.Clips), "dir", filepath.Join(c.Out, "clips"))
	}

	if c.Archive != "" {
		format := archive.Format(c.Archive)
		dst := filepath.Join(filepath.Dir(c.Out), base+format.Ext())
		if err := archive.Bundle(c.Out, dst, base, format); err != nil {
			return fmt.Errorf("failed to bundle output: %w", err)
		}
		written = append(written, dst)
	}

	fmt.Printf("Converted: %s\n", c.Path)
	fmt.Printf("  Schema: %s\n", schema)
	fmt.Printf("  Sentences: %d (%d skipped)\n", report.Total, report.Skipped)
	for _, p := range written {
		fmt.Printf("  Wrote: %s\n", p)
	}
	if report.Skipped > 0 {
		fmt.Println("\nSkipped sentences:")
		for _, d := range report.Diagnostics {
			fmt.Printf("  [%d] %d-%dms: %s\n", d.Index+1, d.StartMs, d.EndMs, d.Reason)
		}
	}
	return nil
}

// tierMap builds the role-to-tier-name mapping: each role defaults to
// its own name, and --tier entries override per role.
func tierMap(schema igt.Schema, overrides map[string]string) (igt.TierMap, error) {
	if !schema.IsValid() {
		return nil, fmt.Errorf("unknown schema %q", schema)
	}

	m := igt.TierMap{}
	for _, role := range schema.Roles() {
		m[role] = string(role)
	}
	for key, name := range overrides {
		role := igt.TierRole(key)
		if _, ok := m[role]; !ok {
			return nil, fmt.Errorf("schema %s has no %q tier (roles: %s)", schema, key, roleList(schema))
		}
		m[role] = name
	}
	return m, nil
}

func roleList(schema igt.Schema) string {
	var names []string
	for _, r := range schema.Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

// mediaPath resolves the media descriptor of the ELAN file to a local
// path relative to the .eaf file. Returns "" when nothing usable is
// linked.
func mediaPath(eafPath, mediaURL string) string {
	if mediaURL == "" {
		return ""
	}
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Scheme == "file" {
		p = u.Path
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(eafPath), p)
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// InspectCmd surveys the tiers of an ELAN file.
type InspectCmd struct {
	Path  string `arg:"" help:"Path to .eaf file" type:"existingfile"`
	XPath string `name:"xpath" help:"Evaluate an XPath expression against the raw XML instead"`
}

func (c *InspectCmd) Run() error {
	src, err := eaf.ParseFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Path, err)
	}

	if c.XPath != "" {
		values, err := src.Query(c.XPath)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		for _, v := range values {
			fmt.Println(v)
		}
		fmt.Printf("\nTotal: %d node(s)\n", len(values))
		return nil
	}

	fmt.Printf("File: %s\n", c.Path)
	fmt.Printf("  Hash: %s\n", src.Hash())
	if src.MediaURL != "" {
		fmt.Printf("  Media: %s\n", src.MediaURL)
	}
	fmt.Println()

	names := src.TierNames()
	if len(names) == 0 {
		fmt.Println("No tiers found.")
		return nil
	}
	fmt.Println("Tiers:")
	for _, name := range names {
		anns, _ := src.Tier(name)
		first, last := 0, 0
		if len(anns) > 0 {
			first = anns[0].StartMs
			last = anns[len(anns)-1].EndMs
		}
		fmt.Printf("  %-24s %4d annotations  %d-%dms\n", name, len(anns), first, last)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("igt version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("igt"),
		kong.Description("Convert ELAN annotation files to interlinear glossed text."),
		kong.UsageOnError(),
	)

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if CLI.LogJSON {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format, os.Stderr)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "igt: %v\n", err)
		os.Exit(1)
	}
}
