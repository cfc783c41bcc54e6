// Package report renders a run of the scenario suite as a self-contained
// HTML page.
package report

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/v0xg/paneltest/internal/runner"
)

// Title heads every report.
const Title = "Admin Panel Test Report"

// TimestampLayout names report files.
const TimestampLayout = "20060102_150405"

//go:embed report.html
var reportHTML string

var reportTemplate = pongo2.Must(pongo2.FromString(reportHTML))

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// StripANSI removes terminal color sequences.
func StripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

// Report is the template model. All values are preformatted.
type Report struct {
	Title    string
	Category string
	Started  string
	Duration string
	Command  string
	ExitCode int
	Stray    string

	Passed, Failed, Skipped, Deselected int

	Rows []Row
}

type Row struct {
	Name     string
	Status   string
	Duration string
	Subtest  bool
	Output   string
	// Screenshot is the path of the full image; Thumbnail is its
	// base64 PNG rendition.
	Screenshot string
	Thumbnail  string
	Triage     string
}

var statusLabels = map[runner.Status]string{
	runner.StatusPass: "passed",
	runner.StatusFail: "failed",
	runner.StatusSkip: "skipped",
}

// Build turns res into a Report. notes maps test names to triage text.
// Screenshots that cannot be read are left out of the row.
func Build(res *runner.Result, notes map[string]string) *Report {
	counts := res.Counts()
	r := &Report{
		Title:      Title,
		Category:   res.Category,
		Started:    res.Start.Format("2006-01-02 15:04:05"),
		Duration:   res.Duration.Round(10 * time.Millisecond).String(),
		Command:    res.Command,
		ExitCode:   res.ExitCode,
		Stray:      StripANSI(strings.Join(res.Stray, "\n")),
		Passed:     counts.Passed,
		Failed:     counts.Failed,
		Skipped:    counts.Skipped,
		Deselected: counts.Deselected,
	}

	for _, t := range res.Selected() {
		row := Row{
			Name:       t.Name,
			Status:     statusLabels[t.Status],
			Duration:   fmt.Sprintf("%.2fs", t.Elapsed.Seconds()),
			Subtest:    t.Parent() != "",
			Output:     StripANSI(strings.Join(t.Output, "")),
			Screenshot: t.Screenshot,
			Triage:     notes[t.Name],
		}
		if row.Status == "" {
			row.Status = "unknown"
		}
		if t.Screenshot != "" {
			if thumb, err := Thumbnail(t.Screenshot, MaxThumbWidth); err == nil {
				row.Thumbnail = thumb
			}
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Render writes the report as HTML.
func Render(w io.Writer, r *Report) error {
	if err := reportTemplate.ExecuteWriter(pongo2.Context{"report": r}, w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Path is where a report started at ts is written.
func Path(dir string, ts time.Time) string {
	return filepath.Join(dir, "test_report_"+ts.Format(TimestampLayout)+".html")
}

// Write renders r into dir and returns the file path.
func Write(dir string, r *Report, ts time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}
	path := Path(dir, ts)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Render(f, r); err != nil {
		return "", err
	}
	return path, f.Close()
}
