package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/checkmark/internal/domain"
)

// Ref identifies an album or playlist in the catalog
type Ref struct {
	Kind       domain.ViewKind
	Storefront string // Empty unless given in a share URL
	ID         string
}

// Identity returns the navigation identity of the referenced container
func (r Ref) Identity() string {
	return string(r.Kind) + "/" + r.ID
}

// ParseRef accepts "album:<id>", "playlist:<id>", a bare numeric album id or
// a share URL such as https://music.apple.com/us/album/name/1440857781.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty reference")
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return parseShareURL(s)
	}

	if kind, id, ok := strings.Cut(s, ":"); ok {
		switch domain.ViewKind(strings.ToLower(kind)) {
		case domain.ViewKindAlbum:
			return validRef(domain.ViewKindAlbum, "", id)
		case domain.ViewKindPlaylist:
			return validRef(domain.ViewKindPlaylist, "", id)
		default:
			return Ref{}, fmt.Errorf("unknown reference kind %q", kind)
		}
	}

	if strings.HasPrefix(s, "pl.") {
		return validRef(domain.ViewKindPlaylist, "", s)
	}
	return validRef(domain.ViewKindAlbum, "", s)
}

// parseShareURL handles /<storefront>/<album|playlist>/<slug>/<id> paths.
// The slug is optional.
func parseShareURL(raw string) (Ref, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid url: %w", err)
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 3 {
		return Ref{}, fmt.Errorf("unsupported url %q", raw)
	}

	storefront := parts[0]
	id := parts[len(parts)-1]

	// ?i=<track> points at a track inside the album; the album is what we show
	switch domain.ViewKind(parts[1]) {
	case domain.ViewKindAlbum:
		return validRef(domain.ViewKindAlbum, storefront, id)
	case domain.ViewKindPlaylist:
		return validRef(domain.ViewKindPlaylist, storefront, id)
	default:
		return Ref{}, fmt.Errorf("unsupported url %q", raw)
	}
}

func validRef(kind domain.ViewKind, storefront, id string) (Ref, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Ref{}, fmt.Errorf("missing %s id", kind)
	}
	return Ref{Kind: kind, Storefront: storefront, ID: id}, nil
}
