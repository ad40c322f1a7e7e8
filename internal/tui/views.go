package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	if m.State == StateOpening {
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}

	body := m.Tracks.View(m.deps.Marks.Get, m.pending())
	body = lipgloss.NewStyle().
		Height(m.Height - ChromeHeight).
		MaxHeight(m.Height - ChromeHeight).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

// renderHeader renders the container title and membership summary
func (m Model) renderHeader() string {
	album := m.Tracks.Album()
	if album == nil {
		return styles.HeaderStyle.Render("checkmark") + "\n" +
			styles.DimStyle.Render(" No album open")
	}

	badge := styles.BadgeStyle.Render(strings.ToUpper(string(album.Kind)))
	title := styles.TitleStyle.Render(styles.Truncate(album.Title, m.Width/2))
	line1 := badge + " " + title
	if album.ArtistName != "" {
		line1 += styles.SubtitleStyle.Render(" · " + album.ArtistName)
	}

	var summary string
	if album.Kind != domain.ViewKindAlbum {
		summary = fmt.Sprintf("%d tracks · library indicators are shown on albums", len(album.Tracks))
	} else {
		found, checked := 0, 0
		for _, id := range album.TrackIDs() {
			if v, ok := m.deps.Marks.Get(id); ok {
				checked++
				if v.InLibrary {
					found++
				}
			}
		}
		summary = fmt.Sprintf("%d tracks · %d in library", len(album.Tracks), found)
		if checked < len(album.Tracks) {
			summary += fmt.Sprintf(" · %d unchecked", len(album.Tracks)-checked)
		}
	}

	return " " + line1 + "\n " + styles.DimStyle.Render(summary)
}

// renderFooter renders status on the left and the help hint on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading || (m.pending() && m.StatusMsg == ""):
		text := m.StatusMsg
		if text == "" {
			text = "Checking library..."
		}
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render(text)
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	right := styles.HelpKeyStyle.Render("?") + styles.HelpDescStyle.Render(" help")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + left + strings.Repeat(" ", gap) + right + " "
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      LIBRARY
  j/k        Up/down               r      Force refresh
  g/Home     First track           c      Clear library cache
  G/End      Last track
  PgUp/PgDn  Scroll page          OTHER
  Ctrl+u/d   Scroll half page      o      Open album/playlist
  h/←        Previous album        /      Filter tracks
                                   Esc    Clear filter
                                   q      Quit

  ✓ in your library   · not in your library

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}
