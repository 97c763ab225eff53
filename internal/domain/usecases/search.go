package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

// cancelCheckInterval is how many records are scanned between context checks.
const cancelCheckInterval = 1024

// Search returns the records whose content contains query, ignoring case.
// Matches keep their original relative order. No index is built.
func Search(ctx context.Context, records []entities.Record, query string) (entities.ResultSet, error) {
	needle := strings.ToLower(query)
	items := make([]entities.Record, 0)
	for i, r := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return entities.ResultSet{}, fmt.Errorf("%w: %w", ErrSearch, err)
			}
		}
		if strings.Contains(strings.ToLower(r.Content), needle) {
			items = append(items, r)
		}
	}
	return entities.ResultSet{
		Query:   query,
		Items:   items,
		Summary: entities.SummaryFor(len(items), query),
	}, nil
}

// SearchUseCase runs the linear filter over the record store.
type SearchUseCase struct {
	store  ports.RecordStore
	logger *slog.Logger
}

// NewSearchUseCase creates a SearchUseCase reading from store.
func NewSearchUseCase(store ports.RecordStore, logger *slog.Logger) (*SearchUseCase, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.Default().With("component", "search")
	}
	return &SearchUseCase{store: store, logger: logger}, nil
}

// Search filters the whole store. ok is false when the query is blank or the
// store is empty; callers treat that as a no-op.
func (uc *SearchUseCase) Search(ctx context.Context, query string) (rs entities.ResultSet, ok bool, err error) {
	if strings.TrimSpace(query) == "" || uc.store.Len() == 0 {
		return entities.ResultSet{}, false, nil
	}
	records, err := uc.store.All(ctx)
	if err != nil {
		return entities.ResultSet{}, false, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	rs, err = Search(ctx, records, query)
	if err != nil {
		return entities.ResultSet{}, false, err
	}
	uc.logger.Debug("search", "query", query, "scanned", len(records), "matched", len(rs.Items))
	return rs, true, nil
}
