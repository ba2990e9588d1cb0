package crawl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/bookdl/internal/catalog"
	"github.com/handiism/bookdl/internal/config"
	"github.com/handiism/bookdl/internal/logger"
	"github.com/handiism/bookdl/internal/model"
	"github.com/handiism/bookdl/internal/report"
)

// ErrCatalogUnavailable is returned when the catalog page cannot be fetched.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Crawler discovers document links: catalog page, then book pages, then the
// document links on each book page.
type Crawler struct {
	fetcher     Fetcher
	extractor   *catalog.Extractor
	reporter    *report.Reporter
	concurrency int
}

// NewCrawler creates a Crawler.
func NewCrawler(settings *config.Settings, fetcher Fetcher, reporter *report.Reporter) *Crawler {
	concurrency := settings.Crawl.DiscoveryConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Crawler{
		fetcher:     fetcher,
		extractor:   catalog.NewExtractor(settings.ToExtractorConfig()),
		reporter:    reporter,
		concurrency: concurrency,
	}
}

// pageResult is the outcome of one book page, stored at the page's index.
type pageResult struct {
	links   []string
	failed  bool
	missing bool
}

// DiscoverDocuments fetches the catalog page, then every book page it links
// to with at most DiscoveryConcurrency pages in flight, and returns the
// flattened document links.
//
// A catalog fetch failure ends the crawl with ErrCatalogUnavailable. Book
// pages that fail or lack a content region are reported and left out; they
// never abort the crawl. Documents are ordered by book, then by position on
// the book page, whatever the completion order.
//
// If ctx is canceled the partial discovery is returned with ctx.Err().
func (c *Crawler) DiscoverDocuments(ctx context.Context, catalogURL string) (*model.Discovery, error) {
	ctx = logger.WithFields(ctx, zap.String("catalog", catalogURL))

	html, err := c.fetcher.FetchString(ctx, catalogURL)
	if err != nil {
		logger.Error(ctx, "no book URLs found", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	books, err := c.extractor.ExtractBookLinks(html, catalogURL)
	if err != nil {
		logger.Error(ctx, "no book URLs found", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	discovery := &model.Discovery{
		CatalogURL:    catalogURL,
		BookPages:     books,
		FailedPages:   []string{},
		MissingRegion: []string{},
		Documents:     []string{},
	}

	c.reporter.BookPagesDiscovered(ctx, catalogURL, len(books))
	if len(books) == 0 {
		return discovery, nil
	}

	results := make([]pageResult, len(books))

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	for i, page := range books {
		g.Go(func() error {
			results[i] = c.discoverPage(ctx, page)
			return nil // a failed page never stops its siblings
		})
	}
	_ = g.Wait()

	for i, res := range results {
		switch {
		case res.failed:
			discovery.FailedPages = append(discovery.FailedPages, books[i])
		case res.missing:
			discovery.MissingRegion = append(discovery.MissingRegion, books[i])
		}
		discovery.Documents = append(discovery.Documents, res.links...)
	}

	logger.Info(ctx, "discovery finished",
		zap.Int("book_pages", len(books)),
		zap.Int("failed_pages", len(discovery.FailedPages)),
		zap.Int("documents", len(discovery.Documents)))

	if err := ctx.Err(); err != nil {
		return discovery, err
	}
	return discovery, nil
}

// discoverPage leaves the page field to the reporter, which logs it with
// every page event.
func (c *Crawler) discoverPage(ctx context.Context, page string) pageResult {
	html, err := c.fetcher.FetchString(ctx, page)
	if err != nil {
		c.reporter.BookPageFailed(ctx, page, err)
		return pageResult{failed: true}
	}

	links, err := c.extractor.ExtractDocumentLinks(html, page)
	switch {
	case errors.Is(err, catalog.ErrRegionNotFound):
		c.reporter.RegionMissing(ctx, page, err)
		return pageResult{missing: true}
	case err != nil:
		c.reporter.BookPageFailed(ctx, page, err)
		return pageResult{failed: true}
	}

	c.reporter.DocumentsFound(ctx, page, links)
	return pageResult{links: links}
}
