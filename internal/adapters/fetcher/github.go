package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

// RawHost is the host serving raw repository files.
const RawHost = "raw.githubusercontent.com"

var _ ports.Fetcher = (*GitHubFetcher)(nil)

// GitHubFetcher loads raw GitHub file URLs. With a token it reads the file
// through the contents API, which also reaches private repositories;
// otherwise, or for URLs it cannot map, it falls back to a plain GET.
type GitHubFetcher struct {
	plain  *HTTPFetcher
	api    *gh.Client
	logger *slog.Logger
}

// NewGitHubFetcher creates a fetcher. token may be empty.
func NewGitHubFetcher(plain *HTTPFetcher, token string) *GitHubFetcher {
	var api *gh.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc := oauth2.NewClient(context.Background(), ts)
		tc.Timeout = plain.client.Timeout
		api = gh.NewClient(tc)
	}
	return newGitHubFetcher(plain, api)
}

func newGitHubFetcher(plain *HTTPFetcher, api *gh.Client) *GitHubFetcher {
	return &GitHubFetcher{
		plain:  plain,
		api:    api,
		logger: slog.Default().With("component", "github-fetcher"),
	}
}

// Authenticated reports whether the contents API is in use.
func (f *GitHubFetcher) Authenticated() bool {
	return f.api != nil
}

// Fetch returns the file body behind rawURL.
func (f *GitHubFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.api == nil {
		return f.plain.Fetch(ctx, rawURL)
	}
	loc, ok := ParseRawURL(rawURL)
	if !ok {
		return f.plain.Fetch(ctx, rawURL)
	}

	if err := f.plain.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: loc.Ref}
	file, _, resp, err := f.api.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("get contents: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", loc.Path)
	}

	if file.GetEncoding() == "none" {
		// Files over 1MB come back without inline content.
		f.logger.Debug("inline content missing, downloading", "url", rawURL, "size", file.GetSize())
		return f.download(ctx, loc, opts)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if int64(len(content)) > f.plain.maxBody {
		return nil, ErrBodyTooLarge
	}
	return []byte(content), nil
}

func (f *GitHubFetcher) download(ctx context.Context, loc RawLocation, opts *gh.RepositoryContentGetOptions) ([]byte, error) {
	rc, _, err := f.api.Repositories.DownloadContents(ctx, loc.Owner, loc.Repo, loc.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("download contents: %w", err)
	}
	defer rc.Close()
	return readCapped(rc, f.plain.maxBody)
}

// RawLocation is a file address inside a repository.
type RawLocation struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// ParseRawURL splits https://raw.githubusercontent.com/owner/repo/ref/path.
// Refs containing slashes cannot be told apart from paths; the first
// segment after the repository is taken as the ref.
func ParseRawURL(rawURL string) (RawLocation, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Host, RawHost) {
		return RawLocation{}, false
	}
	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 4)
	if len(parts) < 4 || parts[3] == "" {
		return RawLocation{}, false
	}
	for _, p := range parts {
		if p == "" {
			return RawLocation{}, false
		}
	}
	return RawLocation{Owner: parts[0], Repo: parts[1], Ref: parts[2], Path: parts[3]}, true
}
