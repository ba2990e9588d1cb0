// Package http provides the fetcher used for catalog pages, book pages and
// documents.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-attempt timeouts
//   - Retries with fixed or exponential backoff for transient failures
//   - Optional request pacing (token bucket) and SOCKS5 proxying
//
// # Basic Usage
//
//	client, err := http.NewClient(http.DefaultOptions())
//
//	// Fetch an HTML page
//	html, err := client.FetchString(ctx, "http://books.goalkicker.com/")
//
//	// Fetch a document
//	pdf, err := client.Fetch(ctx, "http://books.goalkicker.com/GoBook/GoNotesForProfessionals.pdf")
//
// # Failures
//
// Failures are values. Every error returned by Fetch is a *FetchError that
// matches either ErrTransient (retry budget exhausted on timeouts, resets,
// 408/429/5xx) or ErrPermanent (malformed URL, other 4xx), unless the context
// was canceled:
//
//	if errors.Is(err, http.ErrTransient) {
//	    // the host may recover later
//	}
//
// FailureKind maps an error onto model.FailureKind for reporting.
package http
