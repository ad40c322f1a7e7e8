package domain

import (
	"context"
	"time"
)

// SnapshotStore persists the full library id set between runs.
// Implementations never return storage errors; failures are logged and
// treated as a cache miss.
type SnapshotStore interface {
	Load() (LibrarySnapshot, bool)
	Save(ids CatalogIDSet)
	Clear()
	Close() error
}

// LibraryFetcher resolves the user's library from the remote catalog.
// An empty set means "could not resolve" (no tokens or total failure).
type LibraryFetcher interface {
	FetchLibraryIDs(ctx context.Context, tokens Tokens) CatalogIDSet
}

// CatalogBrowser loads track containers for display
type CatalogBrowser interface {
	Album(ctx context.Context, tokens Tokens, storefront, id string) (*Album, error)
	Playlist(ctx context.Context, tokens Tokens, storefront, id string) (*Album, error)
}

// CredentialProvider supplies the current catalog tokens
type CredentialProvider interface {
	CurrentTokens() (Tokens, bool)
}

// CredentialFunc adapts a function to CredentialProvider
type CredentialFunc func() (Tokens, bool)

// CurrentTokens calls f
func (f CredentialFunc) CurrentTokens() (Tokens, bool) { return f() }

// CacheDurations are the TTLs used by the membership cache.
// They are read on every lookup so reconfiguration applies immediately.
type CacheDurations struct {
	Library    time.Duration
	SingleSong time.Duration
}

// ViewSource reports the current view to the reconciliation engine
type ViewSource interface {
	CurrentView() ViewState
}

// Annotator renders membership verdicts on the displayed tracks
type Annotator interface {
	// Marked reports whether the track already carries an indicator
	Marked(id string) bool
	// Unmark removes the indicator of one track
	Unmark(id string)
	// Annotate records a verdict for a track
	Annotate(v Verdict)
	// ClearAll removes every indicator
	ClearAll()
}
