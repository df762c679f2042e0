// package formatter renders pipeline run results as JSON summaries, CSV/text reports and styled terminal output
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotdl/internal/ledger"
	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/tasks"
	"github.com/desertthunder/spotdl/internal/ui"
)

// TrackSummary is the JSON form of one [tasks.TrackResult].
type TrackSummary struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Outcome  string `json:"outcome"`
	VideoURL string `json:"videoUrl,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	Tagged   bool   `json:"tagged"`
	Error    string `json:"error,omitempty"`
}

// RunSummary is the JSON form of a [tasks.RunResult].
type RunSummary struct {
	RunID       string         `json:"runId"`
	Kind        string         `json:"kind"`
	ID          string         `json:"id"`
	Downloaded  int            `json:"downloaded"`
	Failed      int            `json:"failed"`
	TagFailures int            `json:"tagFailures"`
	Pages       int            `json:"pages"`
	Flushed     int            `json:"flushed"`
	DurationMS  int64          `json:"durationMs"`
	Tracks      []TrackSummary `json:"tracks"`
}

// Summarize converts a run result into its JSON form.
func Summarize(r *tasks.RunResult) RunSummary {
	s := RunSummary{
		RunID:       r.RunID,
		Kind:        r.Collection.Kind.String(),
		ID:          r.Collection.ID,
		Downloaded:  r.Downloaded,
		Failed:      r.Failed,
		TagFailures: r.TagFailures,
		Pages:       r.Pages,
		Flushed:     r.Flushed,
		DurationMS:  r.Duration.Milliseconds(),
		Tracks:      make([]TrackSummary, len(r.Tracks)),
	}
	for i, t := range r.Tracks {
		s.Tracks[i] = summarizeTrack(t)
	}
	return s
}

func summarizeTrack(t tasks.TrackResult) TrackSummary {
	ts := TrackSummary{
		Title:    t.Track.Title,
		Artist:   t.Track.ArtistDisplay(),
		Album:    t.Track.Album,
		Outcome:  t.Outcome.String(),
		VideoURL: t.MediaURL,
		FilePath: t.FilePath,
		Tagged:   t.Tagged,
	}
	switch {
	case t.Err != nil:
		ts.Error = t.Err.Error()
	case t.TagErr != nil:
		ts.Error = t.TagErr.Error()
	}
	return ts
}

// ToJSON marshals v with two-space indentation.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// RunReportCSV converts a run result to CSV with one row per track:
// Position, Title, Artist, Album, Year, Outcome, VideoURL, FilePath, Tagged, Error
func RunReportCSV(r *tasks.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Year", "Outcome", "VideoURL", "FilePath", "Tagged", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, t := range r.Tracks {
		ts := summarizeTrack(t)
		record := []string{
			strconv.Itoa(i + 1),
			ts.Title,
			ts.Artist,
			ts.Album,
			t.Track.Year,
			ts.Outcome,
			ts.VideoURL,
			ts.FilePath,
			strconv.FormatBool(ts.Tagged),
			ts.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RunReportText converts a run result to plain text, ending with the same "Missing songs:" block the failure log uses.
func RunReportText(r *tasks.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Collection: %s %s\n", r.Collection.Kind, r.Collection.ID)
	fmt.Fprintf(&buf, "Run: %s\n", r.RunID)
	fmt.Fprintf(&buf, "Downloaded: %d, Failed: %d, Untagged: %d\n\n", r.Downloaded, r.Failed, r.TagFailures)

	for i, t := range r.Tracks {
		mark := "✓"
		if t.Outcome != tasks.Downloaded {
			mark = "✗"
		}
		fmt.Fprintf(&buf, "%d. %s %s - %s", i+1, mark, t.Track.ArtistDisplay(), t.Track.Title)
		if t.FilePath != "" && t.Outcome == tasks.Downloaded {
			fmt.Fprintf(&buf, " (%s)", filepath.Base(t.FilePath))
		}
		buf.WriteString("\n")
	}

	if failures := FailureRecords(r); len(failures) > 0 {
		buf.WriteString("\n")
		buf.WriteString(ledger.FormatBlock(failures))
	}

	return buf.Bytes(), nil
}

// FailureRecords lists the ledger records a run produced, in collection order.
func FailureRecords(r *tasks.RunResult) []models.FailureRecord {
	var out []models.FailureRecord
	for _, t := range r.Failures() {
		out = append(out, models.FailureRecord{Artist: tasks.LedgerArtist(t.Track), Title: tasks.LedgerTitle(t.Track)})
	}
	return out
}

// WriteRunReport writes a report to path, choosing the format from the extension (.csv, .json, anything else is text).
func WriteRunReport(r *tasks.RunResult, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.txt", r.RunID)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err = RunReportCSV(r)
	case ".json":
		data, err = ToJSON(Summarize(r))
	default:
		data, err = RunReportText(r)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// RenderSummary renders a short styled summary for the terminal.
func RenderSummary(r *tasks.RunResult, p *ui.Palette) string {
	var b strings.Builder

	b.WriteString(p.Title(fmt.Sprintf("%s %s", r.Collection.Kind, r.Collection.ID)))
	b.WriteString("\n")
	b.WriteString(p.OK(fmt.Sprintf("✓ %d downloaded", r.Downloaded)))
	if r.TagFailures > 0 {
		b.WriteString(" ")
		b.WriteString(p.Warn(fmt.Sprintf("(%d without tags)", r.TagFailures)))
	}
	b.WriteString("\n")

	if r.Failed > 0 {
		b.WriteString(p.Err(fmt.Sprintf("✗ %d failed", r.Failed)))
		b.WriteString("\n")
		for _, rec := range FailureRecords(r) {
			b.WriteString("  ")
			b.WriteString(p.Warn(rec.String()))
			b.WriteString("\n")
		}
	}

	b.WriteString(p.Help(fmt.Sprintf("%d page(s) in %s", r.Pages, r.Duration.Round(time.Millisecond))))
	return b.String()
}
