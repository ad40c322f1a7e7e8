package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/checkmark/internal/catalog"
	"github.com/mmcdole/checkmark/internal/domain"
)

// Command factories for async operations

// LoadContainerCmd fetches the album or playlist a ref points at
func LoadContainerCmd(browser domain.CatalogBrowser, creds domain.CredentialProvider, storefront string, ref catalog.Ref, back bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tokens, ok := creds.CurrentTokens()
		if !ok {
			return ErrMsg{Err: domain.ErrNotAuthenticated, Context: "opening " + ref.Identity()}
		}
		if ref.Storefront != "" {
			storefront = ref.Storefront
		}

		var (
			album *domain.Album
			err   error
		)
		switch ref.Kind {
		case domain.ViewKindPlaylist:
			album, err = browser.Playlist(ctx, tokens, storefront, ref.ID)
		default:
			album, err = browser.Album(ctx, tokens, storefront, ref.ID)
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "opening " + ref.Identity()}
		}
		return ContainerLoadedMsg{Ref: ref, Album: album, Back: back}
	}
}

// RefreshCmd runs a manual pass off the UI goroutine
func RefreshCmd(ctrl Controller, force bool) tea.Cmd {
	return func() tea.Msg {
		result := ctrl.Refresh(context.Background(), force)
		return RefreshDoneMsg{Force: force, Result: result}
	}
}

// InvalidateCmd clears the membership cache
func InvalidateCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Invalidate()
		return CacheInvalidatedMsg{}
	}
}

// WaitForMarksCmd blocks until the indicators change
func WaitForMarksCmd(obs *ChannelObserver) tea.Cmd {
	return func() tea.Msg {
		<-obs.C()
		return MarksChangedMsg{}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
