package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handiism/bookdl/internal/catalog"
)

func TestLoad_EnvironmentDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	want := DefaultSettings()
	require.Equal(t, want, s)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CATALOG_URL", "https://example.com/books/")
	t.Setenv("FETCH_MAX_ATTEMPTS", "5")
	t.Setenv("FETCH_RETRY_DELAY", "250ms")
	t.Setenv("DOWNLOAD_CONCURRENCY", "2")
	t.Setenv("MATCH_MODE", "contains")

	s, err := Load("")
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Equal(t, "https://example.com/books/", s.CatalogURL)
	require.Equal(t, 5, s.Fetch.MaxAttempts)
	require.Equal(t, 250*time.Millisecond, s.Fetch.RetryDelay)
	require.Equal(t, 2, s.Download.Concurrency)
	require.Equal(t, catalog.MatchContains, s.ToExtractorConfig().Mode)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookdl.yml")
	content := `
outputDir: /tmp/books
fetch:
  timeout: 3s
  maxAttempts: 4
crawl:
  documentRegionID: downloads
download:
  onCollision: skip
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Environment still wins over the file.
	t.Setenv("FETCH_MAX_ATTEMPTS", "6")

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Equal(t, "/tmp/books", s.OutputDir)
	require.Equal(t, 3*time.Second, s.Fetch.Timeout)
	require.Equal(t, 6, s.Fetch.MaxAttempts)
	require.Equal(t, "downloads", s.Crawl.DocumentRegionID)
	require.Equal(t, CollisionSkip, s.Download.OnCollision)
	require.Equal(t, ".pdf", s.Crawl.DocumentSuffix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"relative catalog url", func(s *Settings) { s.CatalogURL = "/books" }},
		{"ftp catalog url", func(s *Settings) { s.CatalogURL = "ftp://example.com/" }},
		{"zero timeout", func(s *Settings) { s.Fetch.Timeout = 0 }},
		{"zero attempts", func(s *Settings) { s.Fetch.MaxAttempts = 0 }},
		{"negative delay", func(s *Settings) { s.Fetch.RetryDelay = -time.Second }},
		{"shrinking exponent", func(s *Settings) { s.Fetch.RetryExponent = 0.5 }},
		{"negative rate", func(s *Settings) { s.Fetch.RateLimit = -1 }},
		{"rate without burst", func(s *Settings) { s.Fetch.RateLimit = 2; s.Fetch.RateBurst = 0 }},
		{"zero discovery workers", func(s *Settings) { s.Crawl.DiscoveryConcurrency = 0 }},
		{"zero download workers", func(s *Settings) { s.Download.Concurrency = 0 }},
		{"empty region", func(s *Settings) { s.Crawl.DocumentRegionID = "" }},
		{"unknown match mode", func(s *Settings) { s.Crawl.MatchMode = "regex" }},
		{"unknown collision policy", func(s *Settings) { s.Download.OnCollision = "rename" }},
	}

	require.NoError(t, DefaultSettings().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			require.True(t, errors.Is(err, ErrInvalidSettings), "got %v", err)
		})
	}
}

func TestToClientOptions(t *testing.T) {
	s := DefaultSettings()
	s.Fetch.Proxy = "127.0.0.1:9050"

	opts := s.ToClientOptions()
	require.Equal(t, 10*time.Second, opts.Timeout)
	require.Equal(t, 3, opts.MaxAttempts)
	require.Equal(t, 2*time.Second, opts.RetryDelay)
	require.Equal(t, "127.0.0.1:9050", opts.ProxyAddr)
}
