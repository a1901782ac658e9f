// Package server exposes the person search workflow over HTTP. It wires the
// person store, the workflow engine and a background task runner behind a
// small JSON API, and renders generated reports as sanitized HTML.
package server
