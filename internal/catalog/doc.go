// Package catalog extracts links from the pages of a book catalog site.
//
// A catalog site has two kinds of pages:
//
//  1. The catalog page, where every book is wrapped in an element carrying
//     a marker class (bookContainer on books.goalkicker.com)
//  2. Book pages, where the downloadable documents are linked from a single
//     content region (the element with id "frontpage")
//
// # Book Links
//
//	ext := catalog.NewExtractor(catalog.DefaultConfig())
//	books, err := ext.ExtractBookLinks(catalogHTML, "http://books.goalkicker.com/")
//	// ["http://books.goalkicker.com/GoBook/", ...]
//
// # Document Links
//
//	docs, err := ext.ExtractDocumentLinks(bookHTML, "http://books.goalkicker.com/GoBook/")
//	// ["http://books.goalkicker.com/GoBook/GoNotesForProfessionals.pdf"]
//
// Only links whose path ends with the configured suffix are kept. Setting
// Mode to MatchContains keeps any link whose URL contains the suffix, which
// also accepts links such as "/get?file=a.pdf&v=2".
//
// # Resolution
//
// Relative hrefs are resolved against the page URL following RFC 3986.
// Links that do not resolve to http or https (mailto:, javascript:) are
// dropped, as are hrefs that fail to parse.
package catalog
