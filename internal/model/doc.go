// Package model defines the records that flow through the bookdl pipeline.
//
// The pipeline is linear and every record is immutable once created:
//
//	catalog page -> book page URLs -> document links -> download results
//
// # Document
//
// Document pairs a document link with the local file it will be written to:
//
//	doc, err := model.NewDocument("http://books.goalkicker.com/GoBook/GoNotesForProfessionals.pdf", ".")
//	fmt.Println(doc.FileName) // GoNotesForProfessionals.pdf
//
// The file name is derived from the last path segment of the link and never
// contains a path separator or a ".." segment. Links that yield no usable
// name return ErrNoFileName.
//
// # DownloadResult
//
// DownloadResult is the outcome of one document fetch. Failures carry a
// FailureKind so reporting can tell transient network errors apart from
// permanent ones, write failures and unresolvable file names.
package model
