package tui

import (
	"sync"

	"github.com/mmcdole/checkmark/internal/domain"
)

// ViewTracker publishes what the track list shows. Passes run off the UI
// goroutine, so they read a snapshot instead of the model.
type ViewTracker struct {
	mu    sync.RWMutex
	state domain.ViewState
}

// NewViewTracker creates a tracker for an empty, non-qualifying view
func NewViewTracker() *ViewTracker {
	return &ViewTracker{}
}

// CurrentView implements domain.ViewSource
func (t *ViewTracker) CurrentView() domain.ViewState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := t.state
	state.VisibleIDs = append([]string(nil), t.state.VisibleIDs...)
	return state
}

// Publish replaces the current view. Only albums qualify for indicators.
func (t *ViewTracker) Publish(album *domain.Album, visibleIDs []string) {
	state := domain.ViewState{}
	if album != nil {
		state.Identity = album.Identity()
		state.Qualifying = album.Kind == domain.ViewKindAlbum
		state.VisibleIDs = append([]string(nil), visibleIDs...)
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}
