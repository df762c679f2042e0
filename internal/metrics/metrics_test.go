package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	t.Run("counts track outcomes by label", func(t *testing.T) {
		m := New()
		m.TrackOutcome(OutcomeDownloaded)
		m.TrackOutcome(OutcomeDownloaded)
		m.TrackOutcome(OutcomeNotFound)

		if got := testutil.ToFloat64(m.TracksTotal.WithLabelValues(OutcomeDownloaded)); got != 2 {
			t.Errorf("expected 2 downloaded, got %v", got)
		}
		if got := testutil.ToFloat64(m.TracksTotal.WithLabelValues(OutcomeNotFound)); got != 1 {
			t.Errorf("expected 1 not_found, got %v", got)
		}
	})

	t.Run("run lifecycle", func(t *testing.T) {
		m := New()
		m.RunStarted()
		if got := testutil.ToFloat64(m.ActiveRuns); got != 1 {
			t.Errorf("expected 1 active run, got %v", got)
		}

		m.RunFinished(2*time.Second, errors.New("boom"))
		if got := testutil.ToFloat64(m.ActiveRuns); got != 0 {
			t.Errorf("expected 0 active runs, got %v", got)
		}
		if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(StatusError)); got != 1 {
			t.Errorf("expected 1 failed run, got %v", got)
		}
		if got := testutil.CollectAndCount(m.RunDuration); got != 1 {
			t.Errorf("expected duration histogram to be collected, got %d", got)
		}
	})

	t.Run("tag failures and flushes", func(t *testing.T) {
		m := New()
		m.TagFailure()
		m.LedgerFlush(nil)
		m.LedgerFlush(errors.New("disk full"))

		if got := testutil.ToFloat64(m.TagFailuresTotal); got != 1 {
			t.Errorf("expected 1 tag failure, got %v", got)
		}
		if got := testutil.ToFloat64(m.LedgerFlushes.WithLabelValues(StatusOK)); got != 1 {
			t.Errorf("expected 1 ok flush, got %v", got)
		}
		if got := testutil.ToFloat64(m.LedgerFlushes.WithLabelValues(StatusError)); got != 1 {
			t.Errorf("expected 1 failed flush, got %v", got)
		}
	})

	t.Run("nil metrics is a no-op", func(t *testing.T) {
		var m *Metrics
		m.TrackOutcome(OutcomeDownloaded)
		m.TagFailure()
		m.RunStarted()
		m.RunFinished(time.Second, nil)
		m.LedgerFlush(nil)
		if m.Registry() != nil {
			t.Error("expected nil registry")
		}

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("handler exposes registry", func(t *testing.T) {
		m := New()
		m.TrackOutcome(OutcomeDownloadFailed)

		server := httptest.NewServer(m.Handler())
		defer server.Close()

		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if !strings.Contains(string(body), `spotdl_tracks_total{outcome="download_failed"} 1`) {
			t.Errorf("expected tracks counter in output, got:\n%s", body)
		}
		if strings.Contains(string(body), "go_goroutines") {
			t.Error("expected private registry without default Go collectors")
		}
	})
}
