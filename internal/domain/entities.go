package domain

import (
	"sort"
	"time"
)

// CatalogIDSet holds every catalog identifier found in the user's library.
// A set is built once per fetch cycle and replaced wholesale afterwards;
// nothing mutates it after construction.
type CatalogIDSet map[string]struct{}

// NewCatalogIDSet builds a set from a list of identifiers, dropping blanks.
func NewCatalogIDSet(ids ...string) CatalogIDSet {
	set := make(CatalogIDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Contains reports whether id is part of the library
func (s CatalogIDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of unique identifiers
func (s CatalogIDSet) Len() int {
	return len(s)
}

// Sorted returns the identifiers in lexical order (used for deterministic persistence)
func (s CatalogIDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LibrarySnapshot is the durable form of a CatalogIDSet.
// Timestamp is epoch milliseconds at the time the set was saved.
type LibrarySnapshot struct {
	CatalogIDs []string `json:"catalogIds"`
	Timestamp  int64    `json:"timestamp"`
}

// SavedAt returns the snapshot timestamp as a time.Time
func (s LibrarySnapshot) SavedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// FreshAt reports whether the snapshot is still usable at now for the given TTL.
// The TTL is supplied by the caller so configuration changes apply to
// snapshots written under an older setting.
func (s LibrarySnapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.SavedAt()) <= ttl
}

// IDSet converts the snapshot back into a lookup set
func (s LibrarySnapshot) IDSet() CatalogIDSet {
	return NewCatalogIDSet(s.CatalogIDs...)
}

// MembershipEntry is a previously resolved "is this track in my library" answer.
// Positive and negative answers share the same entry and TTL.
type MembershipEntry struct {
	IsInLibrary bool
	Timestamp   time.Time
}

// ExpiredAt reports whether the entry is older than ttl at now
func (e MembershipEntry) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.After(e.Timestamp.Add(ttl))
}

// Verdict is the membership answer for one displayed track
type Verdict struct {
	ID        string
	InLibrary bool
	FromCache bool // Served from the per-item cache without resolving the library
}

// Tokens are the credentials required by the catalog API
type Tokens struct {
	Developer string // Bearer token identifying the application
	MediaUser string // User-scoped token
}

// Complete returns true when both tokens are present
func (t Tokens) Complete() bool {
	return t.Developer != "" && t.MediaUser != ""
}

// ViewKind distinguishes the track containers a view can show
type ViewKind string

const (
	ViewKindAlbum    ViewKind = "album"
	ViewKindPlaylist ViewKind = "playlist"
)

// ViewState describes what the user is currently looking at.
type ViewState struct {
	Identity   string   // Navigation target, e.g. "album/1440857781"
	Qualifying bool     // Whether membership indicators belong on this view
	VisibleIDs []string // Track ids in display order
}

// Track is a single catalog track as shown in a track list
type Track struct {
	ID          string
	Title       string
	ArtistName  string
	TrackNumber int
	DiscNumber  int
	Duration    time.Duration
}

// Album is a catalog container of tracks (an album or a playlist)
type Album struct {
	ID         string
	Kind       ViewKind
	Title      string
	ArtistName string
	Tracks     []Track
}

// Identity returns the navigation identity for the container
func (a *Album) Identity() string {
	return string(a.Kind) + "/" + a.ID
}

// TrackIDs returns track ids in display order
func (a *Album) TrackIDs() []string {
	ids := make([]string, 0, len(a.Tracks))
	for _, t := range a.Tracks {
		ids = append(ids, t.ID)
	}
	return ids
}
