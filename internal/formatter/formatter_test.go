package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotdl/internal/models"
	"github.com/desertthunder/spotdl/internal/tasks"
	th "github.com/desertthunder/spotdl/internal/testing"
	"github.com/desertthunder/spotdl/internal/ui"
)

func sampleRun() *tasks.RunResult {
	return &tasks.RunResult{
		RunID:      "run-1",
		Collection: models.Collection{Kind: models.KindPlaylist, ID: "ABC123"},
		Tracks: []tasks.TrackResult{
			{
				Track:    models.Track{Title: "Song One", Artists: []string{"Artist One"}, Album: "Album, One", Year: "2020"},
				Outcome:  tasks.Downloaded,
				MediaURL: "https://www.youtube.com/watch?v=1",
				FilePath: "/music/Song One.mp3",
				Tagged:   true,
			},
			{
				Track:    models.Track{Title: "Song Two", Artists: []string{"A", "B"}},
				Outcome:  tasks.Downloaded,
				MediaURL: "https://www.youtube.com/watch?v=2",
				FilePath: "/music/Song Two.mp3",
				TagErr:   errors.New("cover art: unknown format"),
			},
			{
				Track:   models.Track{Title: "Song", Artists: []string{"X"}},
				Outcome: tasks.NotFound,
				Err:     errors.New("no media found"),
			},
		},
		Downloaded:  2,
		Failed:      1,
		TagFailures: 1,
		Pages:       1,
		Flushed:     1,
		Duration:    1500 * time.Millisecond,
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRun())

	if s.Kind != "playlist" || s.ID != "ABC123" || s.DurationMS != 1500 {
		t.Errorf("unexpected summary header: %+v", s)
	}
	if len(s.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(s.Tracks))
	}
	if s.Tracks[1].Artist != "A, B" || s.Tracks[1].Error != "cover art: unknown format" {
		t.Errorf("unexpected second track: %+v", s.Tracks[1])
	}
	if s.Tracks[2].Outcome != "not_found" {
		t.Errorf("expected not_found outcome, got %s", s.Tracks[2].Outcome)
	}

	data, err := ToJSON(s)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"runId", "downloaded", "failed", "tagFailures", "tracks"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
}

func TestRunReports(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		data, err := RunReportCSV(sampleRun())
		if err != nil {
			t.Fatalf("RunReportCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != "Position,Title,Artist,Album,Year,Outcome,VideoURL,FilePath,Tagged,Error" {
			t.Errorf("unexpected headers %v", rows[0])
		}
		if rows[1][3] != "Album, One" || rows[1][4] != "2020" || rows[1][8] != "true" {
			t.Errorf("unexpected first row %v", rows[1])
		}
		if rows[3][5] != "not_found" || rows[3][9] != "no media found" {
			t.Errorf("unexpected last row %v", rows[3])
		}
	})

	t.Run("text ends with missing songs block", func(t *testing.T) {
		data, err := RunReportText(sampleRun())
		if err != nil {
			t.Fatalf("RunReportText failed: %v", err)
		}
		out := string(data)
		if !strings.Contains(out, "Collection: playlist ABC123") {
			t.Errorf("missing header, got:\n%s", out)
		}
		if !strings.Contains(out, "1. ✓ Artist One - Song One (Song One.mp3)") {
			t.Errorf("missing first track line, got:\n%s", out)
		}
		if !strings.HasSuffix(out, "Missing songs:\nX - Song\n\n") {
			t.Errorf("expected missing songs block at the end, got:\n%s", out)
		}
	})

	t.Run("text without failures has no block", func(t *testing.T) {
		r := sampleRun()
		r.Tracks = r.Tracks[:2]
		data, _ := RunReportText(r)
		if strings.Contains(string(data), "Missing songs:") {
			t.Errorf("unexpected missing songs block:\n%s", data)
		}
	})

	t.Run("failure records fall back to placeholders", func(t *testing.T) {
		r := &tasks.RunResult{Tracks: []tasks.TrackResult{{Track: models.Track{Title: "Lonely"}, Outcome: tasks.DownloadFailed}}}
		records := FailureRecords(r)
		if len(records) != 1 || records[0].String() != "Unknown Artist - Lonely" {
			t.Errorf("unexpected records %v", records)
		}
	})
}

func TestWriteRunReport(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "csv by extension", file: "report.csv", want: "Position,Title"},
		{name: "json by extension", file: "report.json", want: `"runId": "run-1"`},
		{name: "text otherwise", file: "report.txt", want: "Missing songs:"},
		{name: "nested directory", file: filepath.Join("nested", "dir", "report.log"), want: "Collection:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			written, err := WriteRunReport(sampleRun(), path)
			if err != nil {
				t.Fatalf("WriteRunReport failed: %v", err)
			}
			if written != path {
				t.Errorf("expected %s, got %s", path, written)
			}
			if content := th.MustReadFile(t, path); !strings.Contains(content, tt.want) {
				t.Errorf("expected %q in report, got:\n%s", tt.want, content)
			}
		})
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(sampleRun(), ui.Plain)

	for _, want := range []string{"playlist ABC123", "2 downloaded", "1 without tags", "1 failed", "X - Song", "1 page(s) in 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary, got:\n%s", want, out)
		}
	}

	r := sampleRun()
	r.Tracks, r.Failed, r.TagFailures = r.Tracks[:1], 0, 0
	if out := RenderSummary(r, ui.Plain); strings.Contains(out, "failed") || strings.Contains(out, "without tags") {
		t.Errorf("expected clean summary, got:\n%s", out)
	}
}
