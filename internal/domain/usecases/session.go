package usecases

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

// User-visible messages. Each failure replaces the previous message.
const (
	MsgReadFailed   = "Error processing file"
	MsgURLFailed    = "Error fetching URL"
	MsgGitHubFailed = "Error fetching GitHub file"
	MsgSearchFailed = "Search failed"
)

// Snapshot is the state a front end renders.
type Snapshot struct {
	Records int               `json:"records"`
	Results []entities.Record `json:"results"`
	Summary string            `json:"summary"`
	Error   string            `json:"error"`
	Loading bool              `json:"loading"`
	Batches []BatchInfo       `json:"batches"`
}

// BatchInfo describes one successful load.
type BatchInfo struct {
	ID      string              `json:"id"`
	Kind    entities.SourceKind `json:"kind"`
	Source  string              `json:"source"`
	Records int                 `json:"records"`
}

// Session holds the front-end state around the two use cases: the last
// result set, the current error message and the loading flag.
// Errors never escape a Session action as anything but its message.
type Session struct {
	ingest *IngestUseCase
	search *SearchUseCase

	mu       sync.RWMutex
	result   entities.ResultSet
	errMsg   string
	inflight int
	batches  []BatchInfo
}

// NewSession wires a session over the given use cases.
func NewSession(ingest *IngestUseCase, search *SearchUseCase) *Session {
	return &Session{ingest: ingest, search: search}
}

// LoadReader ingests an uploaded file's content under its file name.
func (s *Session) LoadReader(ctx context.Context, name string, r io.Reader) (*entities.RecordBatch, error) {
	return s.load(MsgReadFailed, func() (*entities.RecordBatch, error) {
		return s.ingest.IngestReader(ctx, name, r)
	})
}

// LoadFile ingests a local file by path.
func (s *Session) LoadFile(ctx context.Context, path string) (*entities.RecordBatch, error) {
	return s.load(MsgReadFailed, func() (*entities.RecordBatch, error) {
		return s.ingest.IngestFile(ctx, path)
	})
}

// LoadURL fetches and ingests a URL.
func (s *Session) LoadURL(ctx context.Context, url string) (*entities.RecordBatch, error) {
	return s.load(MsgURLFailed, func() (*entities.RecordBatch, error) {
		return s.ingest.IngestURL(ctx, url)
	})
}

// LoadGitHub fetches and ingests a GitHub file URL.
func (s *Session) LoadGitHub(ctx context.Context, url string) (*entities.RecordBatch, error) {
	return s.load(MsgGitHubFailed, func() (*entities.RecordBatch, error) {
		return s.ingest.IngestGitHub(ctx, url)
	})
}

// Watch loads files dropped into dir through the session, so each one
// updates the error message and batch list like any other file load.
func (s *Session) Watch(ctx context.Context, watcher ports.FileWatcher, dir string, settle time.Duration) error {
	return s.ingest.watch(ctx, watcher, dir, settle, func(ctx context.Context, path string) error {
		_, err := s.LoadFile(ctx, path)
		return err
	})
}

func (s *Session) load(failMsg string, fn func() (*entities.RecordBatch, error)) (*entities.RecordBatch, error) {
	s.begin()
	batch, err := fn()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.errMsg = failMsg
		return nil, err
	}
	s.errMsg = ""
	s.batches = append(s.batches, BatchInfo{
		ID:      batch.ID,
		Kind:    batch.Kind,
		Source:  batch.Source,
		Records: batch.Len(),
	})
	return batch, nil
}

// Search runs the filter and, on success, replaces the current result set.
// A blank query or an empty store leaves every piece of state unchanged.
func (s *Session) Search(ctx context.Context, query string) (entities.ResultSet, bool, error) {
	s.begin()
	rs, ok, err := s.search.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	switch {
	case err != nil:
		s.errMsg = MsgSearchFailed
		return entities.ResultSet{}, false, err
	case !ok:
		return s.result, false, nil
	}
	s.result = rs
	s.errMsg = ""
	return rs, true, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]entities.Record, len(s.result.Items))
	copy(results, s.result.Items)
	batches := make([]BatchInfo, len(s.batches))
	copy(batches, s.batches)
	return Snapshot{
		Records: s.search.store.Len(),
		Results: results,
		Summary: s.result.Summary,
		Error:   s.errMsg,
		Loading: s.inflight > 0,
		Batches: batches,
	}
}

// Records returns the accumulated set.
func (s *Session) Records(ctx context.Context) ([]entities.Record, error) {
	return s.search.store.All(ctx)
}

// Reset discards every record and clears results, summary and error.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.search.store.Reset(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = entities.ResultSet{}
	s.errMsg = ""
	s.batches = nil
	return nil
}

func (s *Session) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}
