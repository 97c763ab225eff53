package cli

import (
	"github.com/0xcro3dile/linesearch-go/internal/adapters/fetcher"
	"github.com/0xcro3dile/linesearch-go/internal/adapters/loader"
	"github.com/0xcro3dile/linesearch-go/internal/adapters/store"
	"github.com/0xcro3dile/linesearch-go/internal/config"
	"github.com/0xcro3dile/linesearch-go/internal/domain/usecases"
)

// app is the wired object graph shared by every front end.
type app struct {
	store   *store.InMemoryStore
	loader  *loader.TextLoader
	session *usecases.Session
}

func newApp(cfg *config.AppConfig) (*app, error) {
	st := store.NewInMemoryStore()
	ld := loader.NewTextLoader()

	plain := fetcher.NewHTTPFetcher(fetcher.Config{
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		RatePerSec:   cfg.Fetch.RatePerSec,
	})
	github := fetcher.NewGitHubFetcher(plain, cfg.GitHubToken())

	ingest, err := usecases.NewIngestUseCase(st, plain,
		usecases.WithGitHubFetcher(github),
		usecases.WithLoader(ld),
	)
	if err != nil {
		return nil, err
	}
	search, err := usecases.NewSearchUseCase(st, nil)
	if err != nil {
		return nil, err
	}

	return &app{
		store:   st,
		loader:  ld,
		session: usecases.NewSession(ingest, search),
	}, nil
}
