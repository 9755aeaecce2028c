// Package search implements the retrieval read path: embedding a query,
// scoring it against stored vectors, and verifying that ingested documents
// are fully persisted.
package search
