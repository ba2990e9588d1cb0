// Package ioutils provides the local file system side of bookdl.
//
// This package contains functions for:
//   - Atomic file writes (temp file + rename)
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//
// # File Operations
//
//	// Ensure the output directory exists
//	err := ioutils.EnsureDir("/books")
//
//	// Write a downloaded document; readers never see a partial file
//	n, err := ioutils.WriteFile("/books/GoNotesForProfessionals.pdf", body)
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Go: Notes/1.pdf") // Returns "Go_ Notes_1.pdf"
package ioutils
