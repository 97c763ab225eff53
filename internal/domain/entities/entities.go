// Package entities contains core business entities.
// These are plain domain values with no knowledge of storage or transport.
package entities

import (
	"fmt"
	"time"
)

// SourceKind identifies where a batch of records came from.
type SourceKind string

const (
	SourceFile   SourceKind = "plain"
	SourceURL    SourceKind = "url"
	SourceGitHub SourceKind = "github"
)

// IDPrefix returns the prefix used for record ids of this kind.
// Plain file records carry bare sequence numbers.
func (k SourceKind) IDPrefix() string {
	switch k {
	case SourceURL:
		return "url-"
	case SourceGitHub:
		return "github-"
	default:
		return ""
	}
}

// RecordID builds the id of the n-th record of a batch of this kind.
// Ids restart at zero for every batch, so they are only unique within one.
func (k SourceKind) RecordID(n int) string {
	return fmt.Sprintf("%s%d", k.IDPrefix(), n)
}

// Document is a local file read fully into memory, before line parsing.
type Document struct {
	Name    string
	Path    string
	Content string
}

// Record is one non-blank line of ingested text plus its origin label.
type Record struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// RecordBatch is everything a single ingestion call produced.
type RecordBatch struct {
	ID       string     `json:"id"`
	Kind     SourceKind `json:"kind"`
	Source   string     `json:"source"`
	Records  []Record   `json:"records"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// Len returns the number of records in the batch.
func (b *RecordBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// ResultSet is the ordered subsequence of records matching a query.
type ResultSet struct {
	Query   string   `json:"query"`
	Items   []Record `json:"items"`
	Summary string   `json:"summary"`
}

// SummaryFor formats the human-readable count line for a search.
func SummaryFor(n int, query string) string {
	return fmt.Sprintf("Found %d results for \"%s\"", n, query)
}
