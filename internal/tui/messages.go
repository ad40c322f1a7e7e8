package tui

import (
	"github.com/mmcdole/checkmark/internal/catalog"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/reconcile"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ContainerLoadedMsg signals that an album or playlist has been fetched
type ContainerLoadedMsg struct {
	Ref   catalog.Ref
	Album *domain.Album
	Back  bool // Loaded by going back in history
}

// MarksChangedMsg signals that membership indicators changed
type MarksChangedMsg struct{}

// RefreshDoneMsg carries the result of a manual refresh
type RefreshDoneMsg struct {
	Force  bool
	Result reconcile.Result
}

// CacheInvalidatedMsg signals that the membership cache was cleared
type CacheInvalidatedMsg struct{}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
