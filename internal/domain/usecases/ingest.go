// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

// IngestUseCase turns raw sources into records and appends them to the store.
type IngestUseCase struct {
	store   ports.RecordStore
	fetcher ports.Fetcher
	github  ports.Fetcher
	loader  ports.DocumentLoader
	logger  *slog.Logger
	now     func() time.Time
}

// IngestOption configures an IngestUseCase.
type IngestOption func(*IngestUseCase)

// WithIngestLogger sets a custom logger. Default is slog.Default().
func WithIngestLogger(logger *slog.Logger) IngestOption {
	return func(uc *IngestUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// WithGitHubFetcher sets the fetcher used for GitHub raw-content URLs.
// Without it GitHub loads go through the plain fetcher.
func WithGitHubFetcher(f ports.Fetcher) IngestOption {
	return func(uc *IngestUseCase) {
		uc.github = f
	}
}

// WithLoader sets the loader used by IngestFile.
func WithLoader(l ports.DocumentLoader) IngestOption {
	return func(uc *IngestUseCase) {
		uc.loader = l
	}
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(store ports.RecordStore, fetcher ports.Fetcher, opts ...IngestOption) (*IngestUseCase, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	uc := &IngestUseCase{
		store:   store,
		fetcher: fetcher,
		logger:  slog.Default().With("component", "ingest"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc, nil
}

// ParseLines splits text on newlines and keeps every non-blank line as a record.
// Ids are sequential from zero and carry the kind's prefix.
func ParseLines(kind entities.SourceKind, source, text string) []entities.Record {
	lines := strings.Split(text, "\n")
	records := make([]entities.Record, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, entities.Record{
			ID:      kind.RecordID(len(records)),
			Content: line,
			Source:  source,
		})
	}
	return records
}

// RewriteGitHubURL maps a github.com blob URL to its raw-content equivalent.
// Any other URL is returned unmodified.
func RewriteGitHubURL(rawURL string) string {
	if !strings.Contains(rawURL, "github.com/") || !strings.Contains(rawURL, "/blob/") {
		return rawURL
	}
	out := strings.Replace(rawURL, "github.com", "raw.githubusercontent.com", 1)
	return strings.Replace(out, "/blob/", "/", 1)
}

// IngestText parses text and appends the resulting batch to the store.
func (uc *IngestUseCase) IngestText(ctx context.Context, kind entities.SourceKind, source, text string) (*entities.RecordBatch, error) {
	batch := &entities.RecordBatch{
		ID:       uuid.NewString(),
		Kind:     kind,
		Source:   source,
		Records:  ParseLines(kind, source, text),
		LoadedAt: uc.now(),
	}
	if err := uc.store.Append(ctx, batch.Records); err != nil {
		return nil, fmt.Errorf("appending batch: %w", err)
	}
	uc.logger.Info("batch ingested",
		"batch", batch.ID, "kind", kind, "source", source,
		"records", batch.Len(), "total", uc.store.Len())
	return batch, nil
}

// IngestDocument ingests an already-loaded local file, labelled by its name.
func (uc *IngestUseCase) IngestDocument(ctx context.Context, doc *entities.Document) (*entities.RecordBatch, error) {
	return uc.IngestText(ctx, entities.SourceFile, doc.Name, doc.Content)
}

// IngestReader reads r fully as text and ingests it under the given name.
func (uc *IngestUseCase) IngestReader(ctx context.Context, name string, r io.Reader) (*entities.RecordBatch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}
	return uc.IngestDocument(ctx, &entities.Document{Name: name, Content: decodeText(data)})
}

// IngestFile loads the file at path through the configured loader.
func (uc *IngestUseCase) IngestFile(ctx context.Context, path string) (*entities.RecordBatch, error) {
	if uc.loader == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrRead)
	}
	doc, err := uc.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return uc.IngestDocument(ctx, doc)
}

// IngestURL fetches rawURL and ingests the body. The URL is the source label.
func (uc *IngestUseCase) IngestURL(ctx context.Context, rawURL string) (*entities.RecordBatch, error) {
	body, err := uc.fetch(ctx, uc.fetcher, rawURL)
	if err != nil {
		return nil, err
	}
	return uc.IngestText(ctx, entities.SourceURL, rawURL, decodeText(body))
}

// IngestGitHub fetches a GitHub file, rewriting blob URLs to raw content first.
// The source label stays the URL as given.
func (uc *IngestUseCase) IngestGitHub(ctx context.Context, rawURL string) (*entities.RecordBatch, error) {
	target := RewriteGitHubURL(rawURL)
	f := uc.github
	if f == nil {
		f = uc.fetcher
	}
	uc.logger.Debug("github fetch", "url", rawURL, "target", target)
	body, err := uc.fetch(ctx, f, target)
	if err != nil {
		return nil, err
	}
	return uc.IngestText(ctx, entities.SourceGitHub, rawURL, decodeText(body))
}

func (uc *IngestUseCase) fetch(ctx context.Context, f ports.Fetcher, url string) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, ErrFetcherRequired)
	}
	body, err := f.Fetch(ctx, url)
	if err != nil {
		uc.logger.Warn("fetch failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return body, nil
}

// decodeText reads bytes as UTF-8, replacing invalid sequences.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
