package ioutils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

const tempFileSuffix = ".part"

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots = regexp.MustCompile(`\.+$`)
	runsOfSpaces = regexp.MustCompile(`\s+`)
)

// WriteFile writes data to path so that readers never observe a partial file.
//
// The bytes are written to a temporary file in the same directory, synced,
// and then renamed over path. An existing file at path is replaced silently.
// When two writers target the same path concurrently the last rename wins
// and the file holds exactly one writer's content.
//
// Returns the number of bytes written.
//
// Example:
//
//	n, err := WriteFile("/books/GoNotesForProfessionals.pdf", body)
func WriteFile(path string, data []byte) (int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*"+tempFileSuffix)
	if err != nil {
		return 0, errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	// Remove the temp file on any failure path below.
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		return int64(n), errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return int64(n), errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return int64(n), errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return int64(n), errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return int64(n), errors.Wrapf(err, "rename to %s", path)
	}

	committed = true
	return int64(n), nil
}

// SanitizeFileName removes or replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation, also rules out "." and "..")
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Go: Notes/1.pdf") // Returns "Go_ Notes_1.pdf"
//	SanitizeFileName("..")              // Returns ""
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = runsOfSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	// Trimming spaces can expose dots again ("report. " -> "report.").
	return trailingDots.ReplaceAllString(name, "")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
