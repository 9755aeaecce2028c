// Package client is the Go client for the corpus HTTP API. Uploads follow
// the server's NDJSON progress stream and retry transient failures with
// exponential backoff; failures classified as permanent by the server are
// surfaced immediately.
package client
