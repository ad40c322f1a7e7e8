package catalog

import (
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
)

// ExtractCatalogIDs collects both the catalog id and the play id of every song.
// A displayed track may be referenced by either; songs with neither are skipped.
func ExtractCatalogIDs(songs []LibrarySong) domain.CatalogIDSet {
	ids := make(domain.CatalogIDSet, len(songs))
	for _, song := range songs {
		if song.Attributes == nil || song.Attributes.PlayParams == nil {
			continue
		}
		pp := song.Attributes.PlayParams
		if pp.CatalogID != "" {
			ids[string(pp.CatalogID)] = struct{}{}
		}
		if pp.ID != "" {
			ids[string(pp.ID)] = struct{}{}
		}
	}
	return ids
}

// MapContainer converts a catalog album or playlist to a domain album
func MapContainer(r Resource, kind domain.ViewKind) *domain.Album {
	album := &domain.Album{
		ID:   r.ID,
		Kind: kind,
	}
	if r.Attributes != nil {
		album.Title = r.Attributes.Name
		album.ArtistName = r.Attributes.ArtistName
		if album.ArtistName == "" {
			album.ArtistName = r.Attributes.CuratorName
		}
	}
	if r.Relationships != nil {
		album.Tracks = MapTracks(r.Relationships.Tracks.Data)
	}
	return album
}

// MapTracks converts catalog track resources to domain tracks
func MapTracks(resources []TrackResource) []domain.Track {
	tracks := make([]domain.Track, 0, len(resources))
	for _, r := range resources {
		if r.ID == "" {
			continue
		}
		track := domain.Track{ID: r.ID}
		if a := r.Attributes; a != nil {
			track.Title = a.Name
			track.ArtistName = a.ArtistName
			track.TrackNumber = a.TrackNumber
			track.DiscNumber = a.DiscNumber
			track.Duration = time.Duration(a.DurationInMillis) * time.Millisecond
		}
		tracks = append(tracks, track)
	}
	return tracks
}
