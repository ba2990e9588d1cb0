package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/handiism/bookdl/internal/catalog"
	"github.com/handiism/bookdl/internal/http"
)

// DefaultCatalogURL is the catalog crawled when no URL is given.
const DefaultCatalogURL = "http://books.goalkicker.com/"

// Collision policies for documents that derive the same file name.
const (
	CollisionOverwrite = "overwrite"
	CollisionSkip      = "skip"
)

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds all configuration options.
type Settings struct {
	// Environment selects the log format (development, production).
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// CatalogURL is the page listing all books.
	CatalogURL string `env:"CATALOG_URL" env-default:"http://books.goalkicker.com/" yaml:"catalogURL"`

	// OutputDir receives the downloaded documents.
	OutputDir string `env:"OUTPUT_DIR" env-default:"." yaml:"outputDir"`

	// MetricsFile, when set, receives the run counters in Prometheus text format.
	MetricsFile string `env:"METRICS_FILE" yaml:"metricsFile"`

	Fetch struct {
		Timeout       time.Duration `env:"FETCH_TIMEOUT" env-default:"10s" yaml:"timeout"`
		MaxAttempts   int           `env:"FETCH_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
		RetryDelay    time.Duration `env:"FETCH_RETRY_DELAY" env-default:"2s" yaml:"retryDelay"`
		RetryExponent float64       `env:"FETCH_RETRY_EXPONENT" env-default:"1" yaml:"retryExponent"`
		UserAgent     string        `env:"FETCH_USER_AGENT" env-default:"bookdl/1.0" yaml:"userAgent"`
		// RateLimit caps requests per second across all workers; 0 disables pacing.
		RateLimit float64 `env:"RATE_LIMIT" env-default:"0" yaml:"rateLimit"`
		RateBurst int     `env:"RATE_BURST" env-default:"1" yaml:"rateBurst"`
		// Proxy is an optional SOCKS5 proxy address (host:port).
		Proxy string `env:"PROXY" yaml:"proxy"`
	} `yaml:"fetch"`

	Crawl struct {
		BookContainerClass   string `env:"BOOK_CONTAINER_CLASS" env-default:"bookContainer" yaml:"bookContainerClass"`
		DocumentRegionID     string `env:"DOCUMENT_REGION_ID" env-default:"frontpage" yaml:"documentRegionID"`
		DocumentSuffix       string `env:"DOCUMENT_SUFFIX" env-default:".pdf" yaml:"documentSuffix"`
		MatchMode            string `env:"MATCH_MODE" env-default:"suffix" yaml:"matchMode"`
		DiscoveryConcurrency int    `env:"DISCOVERY_CONCURRENCY" env-default:"8" yaml:"discoveryConcurrency"`
	} `yaml:"crawl"`

	Download struct {
		Concurrency int    `env:"DOWNLOAD_CONCURRENCY" env-default:"4" yaml:"concurrency"`
		OnCollision string `env:"ON_COLLISION" env-default:"overwrite" yaml:"onCollision"`
	} `yaml:"download"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	s := &Settings{
		Environment: "development",
		CatalogURL:  DefaultCatalogURL,
		OutputDir:   ".",
	}

	s.Fetch.Timeout = 10 * time.Second
	s.Fetch.MaxAttempts = 3
	s.Fetch.RetryDelay = 2 * time.Second
	s.Fetch.RetryExponent = 1
	s.Fetch.UserAgent = "bookdl/1.0"
	s.Fetch.RateBurst = 1

	s.Crawl.BookContainerClass = "bookContainer"
	s.Crawl.DocumentRegionID = "frontpage"
	s.Crawl.DocumentSuffix = ".pdf"
	s.Crawl.MatchMode = string(catalog.MatchSuffix)
	s.Crawl.DiscoveryConcurrency = 8

	s.Download.Concurrency = 4
	s.Download.OnCollision = CollisionOverwrite

	return s
}

// Load reads settings from the environment and, when path is not empty,
// from a YAML/JSON/TOML file. A .env file in the working directory is loaded
// into the environment first if present. Environment variables win over the
// file; defaults fill whatever neither sets.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env: %w", err)
	}

	var s Settings
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &s)
	} else {
		err = cleanenv.ReadEnv(&s)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &s, nil
}

// Validate checks bounds and enumerations.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.CatalogURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: catalog URL %q must be an absolute http(s) URL", ErrInvalidSettings, s.CatalogURL)
	}
	if s.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive", ErrInvalidSettings)
	}
	if s.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("%w: fetch max attempts must be at least 1", ErrInvalidSettings)
	}
	if s.Fetch.RetryDelay < 0 || s.Fetch.RetryExponent < 1 {
		return fmt.Errorf("%w: retry delay must be >= 0 and exponent >= 1", ErrInvalidSettings)
	}
	if s.Fetch.RateLimit < 0 || (s.Fetch.RateLimit > 0 && s.Fetch.RateBurst < 1) {
		return fmt.Errorf("%w: rate limit must be >= 0 with a burst of at least 1", ErrInvalidSettings)
	}
	if s.Crawl.DiscoveryConcurrency < 1 || s.Download.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency limits must be at least 1", ErrInvalidSettings)
	}
	if s.Crawl.BookContainerClass == "" || s.Crawl.DocumentRegionID == "" || s.Crawl.DocumentSuffix == "" {
		return fmt.Errorf("%w: container class, region id and document suffix are required", ErrInvalidSettings)
	}
	switch catalog.MatchMode(s.Crawl.MatchMode) {
	case catalog.MatchSuffix, catalog.MatchContains:
	default:
		return fmt.Errorf("%w: unknown match mode %q", ErrInvalidSettings, s.Crawl.MatchMode)
	}
	switch s.Download.OnCollision {
	case CollisionOverwrite, CollisionSkip:
	default:
		return fmt.Errorf("%w: unknown collision policy %q", ErrInvalidSettings, s.Download.OnCollision)
	}

	return nil
}

// ToClientOptions converts settings to fetcher options.
func (s *Settings) ToClientOptions() http.Options {
	return http.Options{
		Timeout:       s.Fetch.Timeout,
		MaxAttempts:   s.Fetch.MaxAttempts,
		RetryDelay:    s.Fetch.RetryDelay,
		RetryExponent: s.Fetch.RetryExponent,
		UserAgent:     s.Fetch.UserAgent,
		RateLimit:     s.Fetch.RateLimit,
		RateBurst:     s.Fetch.RateBurst,
		ProxyAddr:     s.Fetch.Proxy,
	}
}

// ToExtractorConfig converts settings to link extraction rules.
func (s *Settings) ToExtractorConfig() catalog.Config {
	return catalog.Config{
		ContainerClass: s.Crawl.BookContainerClass,
		RegionID:       s.Crawl.DocumentRegionID,
		Suffix:         s.Crawl.DocumentSuffix,
		Mode:           catalog.MatchMode(s.Crawl.MatchMode),
	}
}
