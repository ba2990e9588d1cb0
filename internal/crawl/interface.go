package crawl

import "context"

//go:generate mockgen -package mockcrawl -source=interface.go -destination=mock/mockcrawl.go *
type Fetcher interface {
	FetchString(ctx context.Context, rawURL string) (string, error)
}
