package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const albumBody = `{"data": [{
	"id": "1440857781",
	"type": "albums",
	"attributes": {"name": "In Rainbows", "artistName": "Radiohead", "trackCount": 2},
	"relationships": {"tracks": {"data": [
		{"id": "1440857795", "type": "songs", "attributes": {"name": "15 Step", "artistName": "Radiohead", "trackNumber": 1, "discNumber": 1, "durationInMillis": 237000}},
		{"id": "1440857796", "type": "songs", "attributes": {"name": "Bodysnatchers", "artistName": "Radiohead", "trackNumber": 2, "discNumber": 1}}
	]}}
}]}`

func TestAlbum(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(albumBody))
	}))
	defer srv.Close()

	album, err := newTestClient(srv.URL).Album(context.Background(), testTokens, "gb", "1440857781")
	require.NoError(t, err)

	assert.Equal(t, "/v1/catalog/gb/albums/1440857781", gotPath)
	assert.Equal(t, "album/1440857781", album.Identity())
	assert.Equal(t, "In Rainbows", album.Title)
	assert.Equal(t, "Radiohead", album.ArtistName)
	require.Len(t, album.Tracks, 2)
	assert.Equal(t, "15 Step", album.Tracks[0].Title)
	assert.Equal(t, 237*time.Second, album.Tracks[0].Duration)
	assert.Equal(t, []string{"1440857795", "1440857796"}, album.TrackIDs())
}

func TestPlaylist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/catalog/us/playlists/pl.abc", r.URL.Path)
		w.Write([]byte(`{"data": [{"id": "pl.abc", "type": "playlists",
			"attributes": {"name": "Chill", "curatorName": "Apple Music"},
			"relationships": {"tracks": {"data": [{"id": "1", "type": "songs"}]}}}]}`))
	}))
	defer srv.Close()

	playlist, err := newTestClient(srv.URL).Playlist(context.Background(), testTokens, "", "pl.abc")
	require.NoError(t, err)
	assert.Equal(t, domain.ViewKindPlaylist, playlist.Kind)
	assert.Equal(t, "Apple Music", playlist.ArtistName)
	assert.Len(t, playlist.Tracks, 1)
}

func TestContainerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, "", domain.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, "", domain.ErrAuthFailed},
		{"not found", http.StatusNotFound, "", domain.ErrItemNotFound},
		{"empty data", http.StatusOK, `{"data": []}`, domain.ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Album(context.Background(), testTokens, "us", "1")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestContainerRequiresTokens(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Album(context.Background(), domain.Tokens{}, "us", "1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Album(context.Background(), testTokens, "us", "1")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}
