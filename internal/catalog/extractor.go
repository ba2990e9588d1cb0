package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MatchMode selects how document links are recognised.
type MatchMode string

const (
	// MatchSuffix keeps links whose URL path ends with the suffix.
	MatchSuffix MatchMode = "suffix"

	// MatchContains keeps links whose full URL contains the suffix anywhere.
	MatchContains MatchMode = "contains"
)

var (
	// ErrRegionNotFound is returned when a book page has no content region.
	ErrRegionNotFound = errors.New("content region not found")

	// ErrUnsupportedScheme is returned by Resolve for links that are not http(s).
	ErrUnsupportedScheme = errors.New("unsupported link scheme")
)

// Config holds the structural markers of the catalog site.
type Config struct {
	// ContainerClass is the class token of elements wrapping book links.
	ContainerClass string

	// RegionID is the id of the element holding the document links of a book page.
	RegionID string

	// Suffix identifies document links, matched case-insensitively.
	Suffix string

	// Mode is MatchSuffix or MatchContains.
	Mode MatchMode
}

// DefaultConfig returns the markers used by books.goalkicker.com.
func DefaultConfig() Config {
	return Config{
		ContainerClass: "bookContainer",
		RegionID:       "frontpage",
		Suffix:         ".pdf",
		Mode:           MatchSuffix,
	}
}

// Extractor pulls book page links out of a catalog page and document links
// out of a book page.
//
// Every call parses its input into a fresh node tree and returns a fresh
// slice, so one Extractor can be shared by concurrent workers.
//
// Example usage:
//
//	ext := NewExtractor(DefaultConfig())
//
//	books, err := ext.ExtractBookLinks(catalogHTML, "http://books.goalkicker.com/")
//	for _, book := range books {
//	    docs, err := ext.ExtractDocumentLinks(bookHTML, book)
//	    if errors.Is(err, ErrRegionNotFound) {
//	        // layout changed, nothing to download from this page
//	    }
//	}
type Extractor struct {
	cfg Config
}

// NewExtractor creates an Extractor. Empty fields fall back to DefaultConfig.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.ContainerClass == "" {
		cfg.ContainerClass = def.ContainerClass
	}
	if cfg.RegionID == "" {
		cfg.RegionID = def.RegionID
	}
	if cfg.Suffix == "" {
		cfg.Suffix = def.Suffix
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	cfg.Suffix = strings.ToLower(cfg.Suffix)

	return &Extractor{cfg: cfg}
}

// ExtractBookLinks returns the links found inside every element carrying the
// container class, resolved against baseURL.
//
// Links are ordered by container, then by position inside the container.
// Duplicates are kept. Unresolvable and non-http(s) hrefs are skipped.
func (e *Extractor) ExtractBookLinks(htmlContent, baseURL string) ([]string, error) {
	base, doc, err := parse(htmlContent, baseURL)
	if err != nil {
		return nil, err
	}

	links := []string{}
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.HasClass(e.cfg.ContainerClass)
	}).Each(func(_ int, container *goquery.Selection) {
		links = append(links, anchors(container, base, nil)...)
	})

	return links, nil
}

// ExtractDocumentLinks returns the document links inside the first element
// whose id equals the region id, resolved against baseURL.
//
// When the page has no such element the result is empty and the error is
// ErrRegionNotFound.
func (e *Extractor) ExtractDocumentLinks(htmlContent, baseURL string) ([]string, error) {
	base, doc, err := parse(htmlContent, baseURL)
	if err != nil {
		return nil, err
	}

	region := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return id == e.cfg.RegionID
	}).First()
	if region.Length() == 0 {
		return []string{}, fmt.Errorf("%w: no element with id %q", ErrRegionNotFound, e.cfg.RegionID)
	}

	return anchors(region, base, e.isDocument), nil
}

func (e *Extractor) isDocument(u *url.URL) bool {
	if e.cfg.Mode == MatchContains {
		return strings.Contains(strings.ToLower(u.String()), e.cfg.Suffix)
	}
	return strings.HasSuffix(strings.ToLower(u.Path), e.cfg.Suffix)
}

// Resolve resolves href against base following RFC 3986 and returns the
// absolute URL. Only http and https results are accepted.
//
//	Resolve("http://x/a/", "b.pdf")  // "http://x/a/b.pdf"
//	Resolve("http://x/a/", "/b.pdf") // "http://x/b.pdf"
func Resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	u, err := resolve(b, href)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("invalid link %q: %w", href, err)
	}

	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	return u, nil
}

func parse(htmlContent, baseURL string) (*url.URL, *goquery.Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	// The HTML5 parser recovers from malformed markup the way browsers do.
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse HTML: %w", err)
	}

	return base, goquery.NewDocumentFromNode(root), nil
}

// anchors collects the resolved href of every <a> below s, in document order.
// A nil keep accepts every link.
func anchors(s *goquery.Selection, base *url.URL, keep func(*url.URL) bool) []string {
	links := []string{}
	s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}

		u, err := resolve(base, href)
		if err != nil {
			return
		}
		if keep != nil && !keep(u) {
			return
		}
		links = append(links, u.String())
	})
	return links
}
