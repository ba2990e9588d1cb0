package model

import "time"

// FailureKind classifies why a pipeline item failed.
type FailureKind string

const (
	// KindNone marks a successful item.
	KindNone FailureKind = ""

	// KindTransient covers timeouts, connection resets and 5xx responses
	// that were still failing after the last retry.
	KindTransient FailureKind = "transient"

	// KindPermanent covers 4xx responses and malformed URLs. Never retried.
	KindPermanent FailureKind = "permanent"

	// KindFileName marks a link without a usable local file name.
	// No network call is made for such links.
	KindFileName FailureKind = "filename"

	// KindWrite marks a local write failure (permissions, disk full).
	KindWrite FailureKind = "write"

	// KindCanceled marks an item abandoned because the run was interrupted.
	KindCanceled FailureKind = "canceled"
)

// DownloadResult is the outcome of one document fetch.
type DownloadResult struct {
	URL      string
	FileName string
	Path     string
	Bytes    int64
	Kind     FailureKind
	Err      error
	Duration time.Duration
}

// OK reports whether the document was written to disk.
func (r DownloadResult) OK() bool {
	return r.Err == nil
}

// Reason returns the failure reason, or an empty string on success.
func (r DownloadResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Discovery is the output of the two-hop crawl.
type Discovery struct {
	// CatalogURL is the page the crawl started from.
	CatalogURL string

	// BookPages are the book page URLs found on the catalog page, in
	// discovery order.
	BookPages []string

	// FailedPages are the book pages that could not be fetched.
	FailedPages []string

	// MissingRegion are the book pages that had no document region.
	MissingRegion []string

	// Documents is the flattened document link list: book order first,
	// then anchor order inside each page. Duplicates are kept.
	Documents []string
}
