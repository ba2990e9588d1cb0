package model

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/bookdl/internal/io"
)

// ErrNoFileName is returned when a document link has no usable last path segment.
var ErrNoFileName = errors.New("cannot determine file name")

// Document is a downloadable document link together with its local destination.
type Document struct {
	// URL is the absolute document link.
	URL string

	// FileName is the sanitized last path segment of URL.
	FileName string

	// Path is FileName joined with the output directory.
	Path string
}

// NewDocument derives the local file name for rawURL and places it in dir.
func NewDocument(rawURL, dir string) (*Document, error) {
	name, err := DeriveFileName(rawURL)
	if err != nil {
		return nil, err
	}

	return &Document{
		URL:      rawURL,
		FileName: name,
		Path:     filepath.Join(dir, name),
	}, nil
}

// DeriveFileName returns the local file name for a document link.
//
// Only the path component is used: the query string and fragment never leak
// into the name. The last segment is percent-decoded and sanitized, so the
// result is a single path element:
//
//	DeriveFileName("http://x/a/Go%20Notes.pdf?dl=1") // "Go Notes.pdf"
//	DeriveFileName("http://x/a/")                    // ErrNoFileName
//	DeriveFileName("http://x/a/..")                  // ErrNoFileName
//
// The function is pure, so deriving twice from the same link yields the same name.
func DeriveFileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoFileName, err)
	}

	// Split on the escaped path so an encoded slash stays inside the segment.
	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("%w: %s has no last path segment", ErrNoFileName, rawURL)
	}

	segment, err := url.PathUnescape(path.Base(p))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoFileName, err)
	}

	name := ioutils.SanitizeFileName(segment)
	if name == "" || name == "." || name == ".." || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}

	return name, nil
}
