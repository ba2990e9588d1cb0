package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/handiism/bookdl/internal/logger"
	"github.com/handiism/bookdl/internal/model"
)

func observed() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.WithLogger(context.Background(), zap.New(core)), logs
}

func gather(t *testing.T, r *Reporter) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestReporter_Counts(t *testing.T) {
	ctx, _ := observed()
	r := NewReporter()

	r.BookPagesDiscovered(ctx, "http://x/", 3)
	r.BookPageFailed(ctx, "http://x/book3/", errors.New("boom"))
	r.RegionMissing(ctx, "http://x/book2/", errors.New("no region"))
	r.DocumentsFound(ctx, "http://x/book1/", []string{"http://x/book1/a.pdf", "http://x/book1/b.pdf"})
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/book1/a.pdf", FileName: "a.pdf", Bytes: 10})
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/book1/b.pdf", Kind: model.KindPermanent, Err: errors.New("404")})

	require.Equal(t, Stats{
		BookPages:      3,
		FailedPages:    1,
		MissingRegions: 1,
		Documents:      2,
		Succeeded:      1,
		Failed:         1,
		Bytes:          10,
	}, r.Stats())

	families := gather(t, r)
	require.Equal(t, 3.0, families["bookdl_book_pages_discovered_total"].GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, 10.0, families["bookdl_bytes_written_total"].GetMetric()[0].GetCounter().GetValue())
	require.Len(t, families["bookdl_downloads_total"].GetMetric(), 2)
}

func TestReporter_LogLevels(t *testing.T) {
	ctx, logs := observed()
	r := NewReporter()

	r.BookPageFailed(ctx, "http://x/a/", errors.New("boom"))
	r.RegionMissing(ctx, "http://x/b/", errors.New("missing"))
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/a.pdf", FileName: "a.pdf"})
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/b.pdf", Kind: model.KindWrite, Err: errors.New("disk full")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4, "one log line per event")
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestReporter_NoBooks(t *testing.T) {
	ctx, logs := observed()
	r := NewReporter()

	r.BookPagesDiscovered(ctx, "http://x/", 0)

	require.Equal(t, 1, logs.FilterMessage("no book URLs found").Len())
}

func TestReporter_OnEvent(t *testing.T) {
	ctx, _ := observed()
	r := NewReporter()

	var events []Event
	r.OnEvent = func(event Event) { events = append(events, event) }

	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/a.pdf", FileName: "a.pdf"})
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/b.pdf", Kind: model.KindTransient, Err: errors.New("timeout")})

	require.Len(t, events, 2)
	assert.Equal(t, LevelSuccess, events[0].Level)
	assert.Equal(t, "Downloaded: a.pdf", events[0].Message)
	assert.Equal(t, LevelError, events[1].Level)
	assert.Contains(t, events[1].Message, "timeout")
}

func TestReporter_OnEventSerialized(t *testing.T) {
	ctx, _ := observed()
	r := NewReporter()

	// Unsynchronized on purpose: the Reporter must not call OnEvent concurrently.
	var events []Event
	r.OnEvent = func(event Event) { events = append(events, event) }

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/a.pdf", FileName: "a.pdf"})
			r.RegionMissing(ctx, "http://x/b/", errors.New("missing"))
		}()
	}
	wg.Wait()

	require.Len(t, events, 100)
}

func TestReporter_Concurrent(t *testing.T) {
	ctx, _ := observed()
	r := NewReporter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/a.pdf", FileName: "a.pdf", Bytes: 2})
		}()
	}
	wg.Wait()

	require.EqualValues(t, 50, r.Stats().Succeeded)
	require.EqualValues(t, 100, r.Stats().Bytes)
}

func TestReporter_WriteMetrics(t *testing.T) {
	ctx, _ := observed()
	r := NewReporter()
	r.DownloadFinished(ctx, model.DownloadResult{URL: "http://x/a.pdf", FileName: "a.pdf", Bytes: 7})

	path := filepath.Join(t.TempDir(), "bookdl.prom")
	require.NoError(t, r.WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `bookdl_downloads_total{kind="",result="succeeded"} 1`)
	require.Contains(t, string(data), "bookdl_bytes_written_total 7")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(Stats{BookPages: 2, FailedPages: 1, Documents: 3, Succeeded: 2, Failed: 1, Bytes: 2048})

	for _, want := range []string{"Book pages:      2", "1 failed", "Documents found: 3", "2.00 KiB", "Failed:          1"} {
		assert.True(t, strings.Contains(out, want), "summary missing %q:\n%s", want, out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{5 * 1024 * 1024, "5.00 MiB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRenderEvent(t *testing.T) {
	assert.Contains(t, RenderEvent(Event{Message: "done", Level: LevelSuccess}), "✓ done")
	assert.Contains(t, RenderEvent(Event{Message: "oops", Level: LevelError}), "✗ oops")
	assert.Contains(t, RenderEvent(Event{Message: "hm", Level: LevelVerbose}), "• hm")
}
