package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/linesearch-go/internal/adapters/fetcher"
	"github.com/0xcro3dile/linesearch-go/internal/adapters/store"
	"github.com/0xcro3dile/linesearch-go/internal/domain/usecases"
)

// recordingFetcher serves fixed bodies and remembers requested URLs.
type recordingFetcher struct {
	bodies map[string]string
	calls  []string
}

func (f *recordingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, &fetcher.StatusError{URL: url, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

func newTestServer(t *testing.T, gh *recordingFetcher, maxUpload int64) (http.Handler, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	opts := []usecases.IngestOption{}
	if gh != nil {
		opts = append(opts, usecases.WithGitHubFetcher(gh))
	}
	ingest, err := usecases.NewIngestUseCase(st, fetcher.NewHTTPFetcher(fetcher.Config{}), opts...)
	require.NoError(t, err)
	search, err := usecases.NewSearchUseCase(st, nil)
	require.NoError(t, err)
	srv := NewServer(usecases.NewSession(ingest, search), Options{MaxUploadBytes: maxUpload})
	return srv.Handler(), st
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, h, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

func upload(t *testing.T, h http.Handler, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, h, http.MethodPost, "/api/upload", mw.FormDataContentType(), &buf)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_UploadThenSearch(t *testing.T) {
	h, st := newTestServer(t, nil, 0)

	rec := upload(t, h, "notes.txt", "Alice knows cloud security\n\nBob knows databases\n")
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode[batchResponse](t, rec)
	assert.Equal(t, "notes.txt", loaded.Batch.Source)
	assert.Equal(t, 2, loaded.Batch.Records)
	assert.Equal(t, 2, loaded.State.Records)
	assert.Equal(t, 2, st.Len())

	rec = postJSON(t, h, "/api/search", map[string]string{"query": "cloud"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[searchResponse](t, rec)
	assert.True(t, res.Applied)
	require.Len(t, res.State.Results, 1)
	assert.Equal(t, "Alice knows cloud security", res.State.Results[0].Content)
	assert.Equal(t, "notes.txt", res.State.Results[0].Source)
	assert.Equal(t, `Found 1 results for "cloud"`, res.State.Summary)
}

func TestServer_SearchBlankQueryIsNoOp(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)
	require.Equal(t, http.StatusOK, upload(t, h, "f.txt", "alpha\nbeta").Code)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/search", map[string]string{"query": "beta"}).Code)

	rec := postJSON(t, h, "/api/search", map[string]string{"query": "  "})

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[searchResponse](t, rec)
	assert.False(t, res.Applied)
	assert.Equal(t, `Found 1 results for "beta"`, res.State.Summary)
}

func TestServer_SearchFormEncoded(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)
	require.Equal(t, http.StatusOK, upload(t, h, "f.txt", "Alpha\nbeta").Code)

	rec := do(t, h, http.MethodPost, "/api/search", "application/x-www-form-urlencoded",
		strings.NewReader("query=ALPHA"))

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[searchResponse](t, rec)
	require.Len(t, res.State.Results, 1)
	assert.Equal(t, "Alpha", res.State.Results[0].Content)
}

func TestServer_FetchFailureThenSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("row one\nrow two\n"))
	}))
	defer upstream.Close()
	h, st := newTestServer(t, nil, 0)

	rec := postJSON(t, h, "/api/fetch", map[string]string{"url": upstream.URL + "/missing.txt"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	failed := decode[errorResponse](t, rec)
	assert.Equal(t, usecases.MsgURLFailed, failed.Error)
	assert.Equal(t, usecases.MsgURLFailed, failed.State.Error)
	assert.Equal(t, 0, st.Len())

	rec = postJSON(t, h, "/api/fetch", map[string]string{"url": upstream.URL + "/data.txt"})
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode[batchResponse](t, rec)
	assert.Empty(t, loaded.State.Error)
	assert.Equal(t, upstream.URL+"/data.txt", loaded.Batch.Source)

	records, err := st.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "url-0", records[0].ID)
	assert.Equal(t, "url-1", records[1].ID)
}

func TestServer_GitHubRewritesBlobURL(t *testing.T) {
	blob := "https://github.com/org/repo/blob/main/data.txt"
	raw := "https://raw.githubusercontent.com/org/repo/main/data.txt"
	gh := &recordingFetcher{bodies: map[string]string{raw: "x\ny"}}
	h, st := newTestServer(t, gh, 0)

	rec := postJSON(t, h, "/api/github", map[string]string{"url": blob})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{raw}, gh.calls)
	loaded := decode[batchResponse](t, rec)
	assert.Equal(t, blob, loaded.Batch.Source)
	records, err := st.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "github-0", records[0].ID)
	assert.Equal(t, blob, records[0].Source)
}

func TestServer_GitHubFailureMessage(t *testing.T) {
	h, _ := newTestServer(t, &recordingFetcher{}, 0)

	rec := postJSON(t, h, "/api/github", map[string]string{"url": "https://github.com/o/r/blob/main/gone.txt"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, usecases.MsgGitHubFailed, decode[errorResponse](t, rec).Error)
}

func TestServer_UploadTooLarge(t *testing.T) {
	h, st := newTestServer(t, nil, 512)

	rec := upload(t, h, "big.txt", strings.Repeat("line of text\n", 100))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, usecases.MsgReadFailed, decode[errorResponse](t, rec).Error)
	assert.Equal(t, 0, st.Len())
}

func TestServer_BadRequests(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		want        string
	}{
		{"upload without multipart", "/api/upload", "text/plain", "hello", "multipart form required"},
		{"fetch missing url", "/api/fetch", "application/json", `{}`, "url required"},
		{"fetch blank url", "/api/fetch", "application/json", `{"url":"  "}`, "url required"},
		{"github invalid json", "/api/github", "application/json", `{`, "invalid JSON body"},
		{"search invalid json", "/api/search", "application/json", `nope`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.contentType, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestServer_UploadWithoutFilePart(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/upload", mw.FormDataContentType(), &buf)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file required", decode[map[string]string](t, rec)["error"])
}

func TestServer_RecordsStateAndReset(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)
	require.Equal(t, http.StatusOK, upload(t, h, "a.txt", "one\ntwo\nthree").Code)
	require.Equal(t, http.StatusOK, upload(t, h, "b.txt", "four").Code)

	rec := do(t, h, http.MethodGet, "/api/records", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Count   int `json:"count"`
		Records []struct {
			ID      string `json:"id"`
			Content string `json:"content"`
			Source  string `json:"source"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 4, listing.Count)
	// ids restart per batch
	assert.Equal(t, "0", listing.Records[0].ID)
	assert.Equal(t, "0", listing.Records[3].ID)
	assert.Equal(t, "b.txt", listing.Records[3].Source)

	state := decode[usecases.Snapshot](t, do(t, h, http.MethodGet, "/api/state", "", nil))
	assert.Equal(t, 4, state.Records)
	assert.Len(t, state.Batches, 2)

	rec = do(t, h, http.MethodPost, "/api/reset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[usecases.Snapshot](t, rec)
	assert.Equal(t, 0, state.Records)
	assert.Empty(t, state.Batches)
}

func TestServer_HealthAndIndex(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)

	rec := do(t, h, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>RAG Search</title>")

	rec = do(t, h, http.MethodGet, "/static/style.css", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, nil, 0)

	rec := do(t, h, http.MethodOptions, "/api/search", "", nil)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	st := store.NewInMemoryStore()
	ingest, err := usecases.NewIngestUseCase(st, fetcher.NewHTTPFetcher(fetcher.Config{}))
	require.NoError(t, err)
	search, err := usecases.NewSearchUseCase(st, nil)
	require.NoError(t, err)
	srv := NewServer(usecases.NewSession(ingest, search), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
