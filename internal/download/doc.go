// Package download writes discovered documents to the output directory.
//
// # Manager
//
// The Manager takes the flattened document links of a crawl and:
//
//  1. Derives a local file name for every link (no network call)
//  2. Applies the collision policy to links sharing a file name
//  3. Downloads the documents concurrently
//  4. Writes each body atomically into the output directory
//
// # Basic Usage
//
//	manager := download.NewManager(settings, client, reporter)
//	results := manager.DownloadAll(ctx, discovery.Documents)
//	for _, res := range results {
//	    if !res.OK() {
//	        fmt.Printf("%s: %s (%s)\n", res.URL, res.Reason(), res.Kind)
//	    }
//	}
//
// # Concurrency
//
// At most settings.Download.Concurrency downloads run at once. Results are
// returned in input order.
//
// # Collisions
//
// Two links can derive the same file name. With the default "overwrite"
// policy both are downloaded and the last completed write wins; the file
// always holds one complete body. With "skip" the first link claims the
// name and later ones fail with model.KindFileName without being fetched.
//
// # Retry Logic
//
// Retries happen inside the Fetcher. A result with model.KindTransient has
// already used every attempt.
package download
