package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/bookdl/internal/config"
	"github.com/handiism/bookdl/internal/http"
	ioutils "github.com/handiism/bookdl/internal/io"
	"github.com/handiism/bookdl/internal/logger"
	"github.com/handiism/bookdl/internal/model"
	"github.com/handiism/bookdl/internal/report"
)

// ErrNameTaken is returned under the skip collision policy for a link whose
// file name was already claimed by an earlier link.
var ErrNameTaken = errors.New("file name already claimed")

// Manager downloads document links into the output directory.
type Manager struct {
	settings *config.Settings
	fetcher  Fetcher
	reporter *report.Reporter
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, fetcher Fetcher, reporter *report.Reporter) *Manager {
	return &Manager{
		settings: settings,
		fetcher:  fetcher,
		reporter: reporter,
	}
}

// DownloadAll downloads every link with at most Download.Concurrency
// downloads in flight and returns one result per link, in input order.
//
// File names are derived before any network call. A link without a usable
// name, or whose name is already claimed under the skip policy, fails with
// model.KindFileName and is never fetched. A failed item never cancels or
// delays the others.
func (m *Manager) DownloadAll(ctx context.Context, links []string) []model.DownloadResult {
	results := make([]model.DownloadResult, len(links))
	if len(links) == 0 {
		return results
	}

	dir := m.settings.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		for i, link := range links {
			results[i] = model.DownloadResult{URL: link, Kind: model.KindWrite, Err: fmt.Errorf("could not create %s: %w", dir, err)}
			m.reporter.DownloadFinished(ctx, results[i])
		}
		return results
	}

	docs := m.plan(ctx, links, dir, results)

	concurrency := m.settings.Download.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, doc := range docs {
		if doc == nil {
			continue
		}
		g.Go(func() error {
			results[i] = m.download(ctx, doc)
			m.reporter.DownloadFinished(ctx, results[i])
			return nil // Continue with other documents
		})
	}
	_ = g.Wait()

	return results
}

// plan derives the destination of every link. Links that cannot be
// downloaded get their final result in results and a nil entry in the
// returned slice.
func (m *Manager) plan(ctx context.Context, links []string, dir string, results []model.DownloadResult) []*model.Document {
	docs := make([]*model.Document, len(links))
	claimed := make(map[string]string, len(links))

	for i, link := range links {
		doc, err := model.NewDocument(link, dir)
		if err != nil {
			results[i] = model.DownloadResult{URL: link, Kind: model.KindFileName, Err: err}
			m.reporter.DownloadFinished(ctx, results[i])
			continue
		}

		if owner, ok := claimed[doc.FileName]; ok && m.settings.Download.OnCollision == config.CollisionSkip {
			results[i] = model.DownloadResult{
				URL:      link,
				FileName: doc.FileName,
				Path:     doc.Path,
				Kind:     model.KindFileName,
				Err:      fmt.Errorf("%w: %s is used by %s", ErrNameTaken, doc.FileName, owner),
			}
			m.reporter.DownloadFinished(ctx, results[i])
			continue
		} else if ok {
			logger.Warn(ctx, "file name collision, last write wins",
				zap.String("file", doc.FileName),
				zap.String("url", link),
				zap.String("other_url", owner))
		} else {
			claimed[doc.FileName] = link
		}

		docs[i] = doc
	}

	return docs
}

func (m *Manager) download(ctx context.Context, doc *model.Document) model.DownloadResult {
	res := model.DownloadResult{URL: doc.URL, FileName: doc.FileName, Path: doc.Path}
	if err := ctx.Err(); err != nil {
		res.Kind, res.Err = model.KindCanceled, err
		return res
	}

	start := time.Now()
	logger.Debug(ctx, "downloading", zap.String("url", doc.URL), zap.String("path", doc.Path))

	body, err := m.fetcher.Fetch(ctx, doc.URL)
	if err != nil {
		res.Kind, res.Err = http.FailureKind(err), err
		res.Duration = time.Since(start)
		return res
	}

	n, err := ioutils.WriteFile(doc.Path, body)
	if err != nil {
		res.Kind, res.Err = model.KindWrite, err
		res.Duration = time.Since(start)
		return res
	}

	res.Bytes = n
	res.Duration = time.Since(start)
	return res
}
