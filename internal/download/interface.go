package download

import "context"

// Fetcher retrieves a document body. *http.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}
