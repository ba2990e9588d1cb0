// Package crawl discovers the document links of a book catalog site.
//
// The crawl is exactly two hops deep:
//
//  1. Fetch the catalog page and extract the book page links
//  2. Fetch every book page concurrently and extract its document links
//
// # Basic Usage
//
//	reporter := report.NewReporter()
//	crawler := crawl.NewCrawler(settings, client, reporter)
//
//	discovery, err := crawler.DiscoverDocuments(ctx, settings.CatalogURL)
//	if errors.Is(err, crawl.ErrCatalogUnavailable) {
//	    log.Fatal(err)
//	}
//	for _, link := range discovery.Documents {
//	    fmt.Println(link)
//	}
//
// # Concurrency
//
// Book pages are fetched by at most settings.Crawl.DiscoveryConcurrency
// workers. Results are stored by page index and flattened after every
// worker has finished, so the output order never depends on timing.
//
// # Failures
//
// Only the catalog page is critical. A book page that cannot be fetched is
// listed in Discovery.FailedPages; a book page without a content region is
// listed in Discovery.MissingRegion. Both are reported and skipped.
package crawl
