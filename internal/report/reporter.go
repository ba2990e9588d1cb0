package report

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/handiism/bookdl/internal/logger"
	"github.com/handiism/bookdl/internal/model"
)

const namespace = "bookdl"

// Stats is a snapshot of the run counters.
type Stats struct {
	BookPages      int64
	FailedPages    int64
	MissingRegions int64
	Documents      int64
	Succeeded      int64
	Failed         int64
	Bytes          int64
}

// Reporter counts pipeline outcomes and logs one line per event.
//
// Every event goes to the context logger at a level matching its severity
// and, when set, to the OnEvent callback. Counters are kept twice: as plain
// atomics for Stats and as Prometheus counters in a registry owned by the
// Reporter.
//
// A Reporter is safe for concurrent use.
type Reporter struct {
	// OnEvent receives every event after it was logged. Optional.
	// Calls are serialized, so OnEvent never runs concurrently with itself
	// even though events come from many workers.
	OnEvent func(Event)

	emitMu sync.Mutex

	bookPages      atomic.Int64
	failedPages    atomic.Int64
	missingRegions atomic.Int64
	documents      atomic.Int64
	succeeded      atomic.Int64
	failed         atomic.Int64
	bytes          atomic.Int64

	registry          *prometheus.Registry
	pagesTotal        prometheus.Counter
	pagesFailed       prometheus.Counter
	regionsMissing    prometheus.Counter
	documentsTotal    prometheus.Counter
	downloadsTotal    *prometheus.CounterVec
	bytesWrittenTotal prometheus.Counter
}

// NewReporter creates a Reporter with its own metrics registry.
func NewReporter() *Reporter {
	r := &Reporter{
		registry: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_pages_discovered_total",
			Help:      "Book page links found on the catalog page.",
		}),
		pagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_pages_failed_total",
			Help:      "Book pages that could not be fetched.",
		}),
		regionsMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_pages_region_missing_total",
			Help:      "Book pages without a content region.",
		}),
		documentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_discovered_total",
			Help:      "Document links found on book pages.",
		}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Finished downloads by result and failure kind.",
		}, []string{"result", "kind"}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to the output directory.",
		}),
	}

	r.registry.MustRegister(
		r.pagesTotal,
		r.pagesFailed,
		r.regionsMissing,
		r.documentsTotal,
		r.downloadsTotal,
		r.bytesWrittenTotal,
	)

	return r
}

// Registry returns the registry holding the run counters.
func (r *Reporter) Registry() *prometheus.Registry {
	return r.registry
}

// BookPagesDiscovered records the book page links found on the catalog.
// The catalog URL is expected on the context logger already.
func (r *Reporter) BookPagesDiscovered(ctx context.Context, catalogURL string, n int) {
	r.bookPages.Add(int64(n))
	r.pagesTotal.Add(float64(n))

	if n == 0 {
		logger.Warn(ctx, "no book URLs found")
		r.emit(Event{Message: fmt.Sprintf("No book URLs found on %s", catalogURL), Level: LevelWarning})
		return
	}
	logger.Info(ctx, "book pages discovered", zap.Int("count", n))
	r.emit(Event{Message: fmt.Sprintf("Found %d book pages on %s", n, catalogURL), Level: LevelInfo})
}

// BookPageFailed records a book page that could not be fetched.
func (r *Reporter) BookPageFailed(ctx context.Context, pageURL string, err error) {
	r.failedPages.Add(1)
	r.pagesFailed.Inc()

	logger.Error(ctx, "book page failed", zap.String("page", pageURL), zap.Error(err))
	r.emit(Event{Message: fmt.Sprintf("Error fetching %s: %v", pageURL, err), Level: LevelError})
}

// RegionMissing records a book page without a content region.
func (r *Reporter) RegionMissing(ctx context.Context, pageURL string, err error) {
	r.missingRegions.Add(1)
	r.regionsMissing.Inc()

	logger.Warn(ctx, "content region missing", zap.String("page", pageURL), zap.Error(err))
	r.emit(Event{Message: fmt.Sprintf("No documents section on %s", pageURL), Level: LevelWarning})
}

// DocumentsFound records the document links extracted from one book page.
func (r *Reporter) DocumentsFound(ctx context.Context, pageURL string, links []string) {
	r.documents.Add(int64(len(links)))
	r.documentsTotal.Add(float64(len(links)))

	logger.Debug(ctx, "documents found", zap.String("page", pageURL), zap.Strings("links", links))
	r.emit(Event{Message: fmt.Sprintf("Found %d document(s) on %s", len(links), pageURL), Level: LevelVerbose})
}

// DownloadFinished records the terminal outcome of one document.
func (r *Reporter) DownloadFinished(ctx context.Context, res model.DownloadResult) {
	if res.OK() {
		r.succeeded.Add(1)
		r.bytes.Add(res.Bytes)
		r.downloadsTotal.WithLabelValues("succeeded", "").Inc()
		r.bytesWrittenTotal.Add(float64(res.Bytes))

		logger.Info(ctx, "download succeeded",
			zap.String("url", res.URL),
			zap.String("path", res.Path),
			zap.Int64("bytes", res.Bytes),
			zap.Duration("duration", res.Duration))
		r.emit(Event{Message: fmt.Sprintf("Downloaded: %s", res.FileName), Level: LevelSuccess})
		return
	}

	r.failed.Add(1)
	r.downloadsTotal.WithLabelValues("failed", string(res.Kind)).Inc()

	logger.Error(ctx, "download failed",
		zap.String("url", res.URL),
		zap.String("kind", string(res.Kind)),
		zap.Error(res.Err))
	r.emit(Event{Message: fmt.Sprintf("Error downloading %s: %s", res.URL, res.Reason()), Level: LevelError})
}

// Stats returns a snapshot of the counters.
func (r *Reporter) Stats() Stats {
	return Stats{
		BookPages:      r.bookPages.Load(),
		FailedPages:    r.failedPages.Load(),
		MissingRegions: r.missingRegions.Load(),
		Documents:      r.documents.Load(),
		Succeeded:      r.succeeded.Load(),
		Failed:         r.failed.Load(),
		Bytes:          r.bytes.Load(),
	}
}

// WriteMetrics writes the counters to path in the node_exporter textfile
// collector format.
func (r *Reporter) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("could not write metrics to %s: %w", path, err)
	}
	return nil
}

func (r *Reporter) emit(event Event) {
	if r.OnEvent == nil {
		return
	}

	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.OnEvent(event)
}
