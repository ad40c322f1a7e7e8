package catalog

import (
	"testing"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"album:1440857781", Ref{Kind: domain.ViewKindAlbum, ID: "1440857781"}},
		{"Playlist:pl.u-abc", Ref{Kind: domain.ViewKindPlaylist, ID: "pl.u-abc"}},
		{" 1440857781 ", Ref{Kind: domain.ViewKindAlbum, ID: "1440857781"}},
		{"pl.f4d106fed2bd41149aaacabb233eb5eb", Ref{Kind: domain.ViewKindPlaylist, ID: "pl.f4d106fed2bd41149aaacabb233eb5eb"}},
		{"https://music.apple.com/us/album/abbey-road/1441164426", Ref{Kind: domain.ViewKindAlbum, Storefront: "us", ID: "1441164426"}},
		{"https://music.apple.com/gb/album/abbey-road/1441164426?i=1441164430", Ref{Kind: domain.ViewKindAlbum, Storefront: "gb", ID: "1441164426"}},
		{"https://music.apple.com/us/playlist/todays-hits/pl.f4d106fed2bd41149aaacabb233eb5eb", Ref{Kind: domain.ViewKindPlaylist, Storefront: "us", ID: "pl.f4d106fed2bd41149aaacabb233eb5eb"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, in := range []string{"", "artist:123", "album:", "https://music.apple.com/us", "https://music.apple.com/us/artist/x/1"} {
		_, err := ParseRef(in)
		assert.Error(t, err, in)
	}
}

func TestRefIdentity(t *testing.T) {
	ref := Ref{Kind: domain.ViewKindAlbum, ID: "42"}
	album := &domain.Album{Kind: domain.ViewKindAlbum, ID: "42"}
	assert.Equal(t, album.Identity(), ref.Identity())
}
