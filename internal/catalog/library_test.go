package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var testTokens = domain.Tokens{Developer: "dev-token", MediaUser: "user-token"}

// fakeLibrary serves /v1/me/library/songs for a library of size songs.
// failAt, when > 0, makes the page at that offset return failStatus.
type fakeLibrary struct {
	size       int
	failAt     int
	failStatus int
	requests   atomic.Int32
	lastHeader http.Header
}

func (f *fakeLibrary) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.lastHeader = r.Header.Clone()

		if r.URL.Path != librarySongsPath {
			http.NotFound(w, r)
			return
		}

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		require.NoError(t, err)
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		require.NoError(t, err)

		if f.failAt > 0 && offset >= f.failAt {
			w.WriteHeader(f.failStatus)
			return
		}

		var data []map[string]any
		for i := offset; i < offset+limit && i < f.size; i++ {
			data = append(data, map[string]any{
				"id":   fmt.Sprintf("i.lib%d", i),
				"type": "library-songs",
				"attributes": map[string]any{
					"playParams": map[string]any{
						"id":        fmt.Sprintf("i.lib%d", i),
						"catalogId": strconv.Itoa(1000 + i),
					},
				},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, nil, WithRateLimit(rate.Inf, 1))
}

func TestFetchLibraryIDs_Paginates(t *testing.T) {
	lib := &fakeLibrary{size: 250}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)

	// 100 + 100 + 50 (short page ends pagination)
	assert.Equal(t, int32(3), lib.requests.Load())
	assert.Equal(t, 500, ids.Len(), "catalog id and play id are both collected")
	assert.True(t, ids.Contains("1000"))
	assert.True(t, ids.Contains("1249"))
	assert.True(t, ids.Contains("i.lib42"))
}

func TestFetchLibraryIDs_StopsOnEmptyPage(t *testing.T) {
	lib := &fakeLibrary{size: 200}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)

	// Two full pages then an empty one
	assert.Equal(t, int32(3), lib.requests.Load())
	assert.Equal(t, 400, ids.Len())
}

func TestFetchLibraryIDs_SendsHeaders(t *testing.T) {
	lib := &fakeLibrary{size: 1}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)

	assert.Equal(t, "*/*", lib.lastHeader.Get("Accept"))
	assert.Equal(t, "Bearer dev-token", lib.lastHeader.Get("Authorization"))
	assert.Equal(t, "user-token", lib.lastHeader.Get("Media-User-Token"))
}

func TestFetchLibraryIDs_MissingTokens(t *testing.T) {
	lib := &fakeLibrary{size: 10}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	for _, tokens := range []domain.Tokens{
		{},
		{Developer: "dev-token"},
		{MediaUser: "user-token"},
	} {
		ids := client.FetchLibraryIDs(context.Background(), tokens)
		assert.Equal(t, 0, ids.Len())
	}
	assert.Equal(t, int32(0), lib.requests.Load(), "no request without both tokens")
}

func TestFetchLibraryIDs_PartialOnRejectedPage(t *testing.T) {
	lib := &fakeLibrary{size: 1000, failAt: 200, failStatus: http.StatusInternalServerError}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)

	assert.Equal(t, int32(3), lib.requests.Load())
	assert.Equal(t, 400, ids.Len(), "pages fetched before the failure are kept")
}

func TestFetchLibraryIDs_EmptyOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)
	assert.Equal(t, 0, ids.Len())
}

func TestFetchLibraryIDs_EmptyOnMalformedBody(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			var data []map[string]any
			for i := 0; i < LibraryPageSize; i++ {
				data = append(data, map[string]any{"attributes": map[string]any{
					"playParams": map[string]any{"catalogId": strconv.Itoa(i)},
				}})
			}
			json.NewEncoder(w).Encode(map[string]any{"data": data})
			return
		}
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)
	assert.Equal(t, 0, ids.Len(), "decode failure discards the partial accumulation")
}

func TestFetchLibraryIDs_Ceiling(t *testing.T) {
	lib := &fakeLibrary{size: MaxLibraryItems + 5000}
	srv := httptest.NewServer(lib.handler(t))
	defer srv.Close()

	ids := newTestClient(srv.URL).FetchLibraryIDs(context.Background(), testTokens)

	assert.Equal(t, int32(MaxLibraryItems/LibraryPageSize), lib.requests.Load())
	assert.Equal(t, MaxLibraryItems*2, ids.Len())
	assert.False(t, ids.Contains(strconv.Itoa(1000+MaxLibraryItems)))
}

func TestExtractCatalogIDs(t *testing.T) {
	body := `{"data": [
		{"attributes": {"playParams": {"id": "i.abc", "catalogId": "1440857781"}}},
		{"attributes": {"playParams": {"catalogId": 1440857782}}},
		{"attributes": {"playParams": {"id": 77}}},
		{"attributes": {"playParams": {}}},
		{"attributes": {"name": "no play params"}},
		{"id": "no attributes"},
		{"attributes": {"playParams": {"id": {"nested": true}, "catalogId": "999"}}},
		{"attributes": {"playParams": {"id": "i.abc"}}}
	]}`

	var page LibrarySongsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &page))

	ids := ExtractCatalogIDs(page.Data)
	assert.Equal(t, []string{"1440857781", "1440857782", "77", "999", "i.abc"}, ids.Sorted())
}

func TestVerifyTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		if r.Header.Get("Authorization") != "Bearer dev" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	require.NoError(t, client.VerifyTokens(ctx, domain.Tokens{Developer: "dev", MediaUser: "user"}))

	err := client.VerifyTokens(ctx, domain.Tokens{Developer: "wrong", MediaUser: "user"})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)

	err = client.VerifyTokens(ctx, domain.Tokens{Developer: "dev"})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
