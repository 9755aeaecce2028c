// Package server exposes the ingestion and retrieval API over HTTP.
//
// Uploads stream progress back as NDJSON; one JSON record per line, ending
// with a terminal record that carries the document summary. All other
// endpoints are plain JSON.
package server
