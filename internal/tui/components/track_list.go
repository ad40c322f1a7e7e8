package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// MarkFunc returns the membership verdict currently shown for a track
type MarkFunc func(id string) (domain.Verdict, bool)

// TrackList renders the tracks of an album or playlist with a membership
// column, and supports fuzzy filtering by title and artist.
type TrackList struct {
	album *domain.Album

	// Filtering
	filtering   bool
	filterInput textinput.Model
	filterQuery string
	filteredIdx []int       // nil when no filter is active
	matched     map[int]int // track index -> match slot, for highlighting
	matches     fuzzy.Matches

	cursor int
	offset int

	width  int
	height int

	spinnerFrame int
}

// NewTrackList creates an empty track list
func NewTrackList() *TrackList {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = styles.FilterStyle
	ti.CharLimit = 64

	return &TrackList{filterInput: ti}
}

// SetAlbum replaces the content and resets cursor and filter
func (l *TrackList) SetAlbum(a *domain.Album) {
	l.album = a
	l.cursor = 0
	l.offset = 0
	l.ClearFilter()
}

// Album returns the container being shown, or nil
func (l *TrackList) Album() *domain.Album {
	return l.album
}

// SetSize sets the render area
func (l *TrackList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.filterInput.Width = width - 4
	l.clampOffset()
}

// SetSpinnerFrame updates the pending indicator animation frame
func (l *TrackList) SetSpinnerFrame(frame int) {
	l.spinnerFrame = frame
}

// Len returns the number of rows currently shown
func (l *TrackList) Len() int {
	if l.album == nil {
		return 0
	}
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.album.Tracks)
}

// VisibleIDs returns the ids of the rows currently shown, in display order
func (l *TrackList) VisibleIDs() []string {
	n := l.Len()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, l.album.Tracks[l.trackIndex(i)].ID)
	}
	return ids
}

// Selected returns the track under the cursor
func (l *TrackList) Selected() (domain.Track, bool) {
	if l.Len() == 0 {
		return domain.Track{}, false
	}
	return l.album.Tracks[l.trackIndex(l.cursor)], true
}

func (l *TrackList) trackIndex(row int) int {
	if l.filteredIdx != nil {
		return l.filteredIdx[row]
	}
	return row
}

// MoveCursor moves the cursor by delta rows, clamped to the list
func (l *TrackList) MoveCursor(delta int) {
	n := l.Len()
	if n == 0 {
		return
	}
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor >= n {
		l.cursor = n - 1
	}
	l.clampOffset()
}

// GoTop moves to the first row
func (l *TrackList) GoTop() {
	l.cursor = 0
	l.clampOffset()
}

// GoBottom moves to the last row
func (l *TrackList) GoBottom() {
	if n := l.Len(); n > 0 {
		l.cursor = n - 1
	}
	l.clampOffset()
}

// PageSize returns how many rows fit
func (l *TrackList) PageSize() int {
	rows := l.height - 2 // header + filter line
	if rows < 1 {
		return 1
	}
	return rows
}

func (l *TrackList) clampOffset() {
	page := l.PageSize()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+page {
		l.offset = l.cursor - page + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// StartFilter focuses the filter input
func (l *TrackList) StartFilter() tea.Cmd {
	l.filtering = true
	l.filterInput.SetValue(l.filterQuery)
	return l.filterInput.Focus()
}

// IsFiltering reports whether the filter input has focus
func (l *TrackList) IsFiltering() bool {
	return l.filtering
}

// FilterQuery returns the active filter
func (l *TrackList) FilterQuery() string {
	return l.filterQuery
}

// ClearFilter drops the filter. It returns true if one was active.
func (l *TrackList) ClearFilter() bool {
	had := l.filterQuery != ""
	l.filtering = false
	l.filterInput.Blur()
	l.filterInput.SetValue("")
	l.filterQuery = ""
	l.filteredIdx = nil
	l.matched = nil
	l.matches = nil
	return had
}

// UpdateFilter feeds a message to the filter input. changed is true when
// the set of visible rows changed.
func (l *TrackList) UpdateFilter(msg tea.Msg) (cmd tea.Cmd, changed bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			l.filtering = false
			l.filterInput.Blur()
			return nil, false
		case "esc":
			return nil, l.ClearFilter()
		}
	}

	l.filterInput, cmd = l.filterInput.Update(msg)
	if l.filterInput.Value() != l.filterQuery {
		l.applyFilter(l.filterInput.Value())
		changed = true
	}
	return cmd, changed
}

func (l *TrackList) applyFilter(query string) {
	l.filterQuery = query
	l.cursor = 0
	l.offset = 0

	if query == "" || l.album == nil {
		l.filteredIdx = nil
		l.matched = nil
		l.matches = nil
		return
	}

	// Match against "title artist" so either narrows the list
	haystack := make([]string, len(l.album.Tracks))
	for i, t := range l.album.Tracks {
		haystack[i] = strings.ToLower(t.Title + " " + t.ArtistName)
	}

	l.matches = fuzzy.Find(strings.ToLower(query), haystack)
	l.filteredIdx = make([]int, len(l.matches))
	l.matched = make(map[int]int, len(l.matches))
	for i, match := range l.matches {
		l.filteredIdx[i] = match.Index
		l.matched[match.Index] = i
	}
}

// View renders the list. pending animates rows that have no verdict yet.
func (l *TrackList) View(mark MarkFunc, pending bool) string {
	if l.album == nil {
		return styles.DimStyle.Render("  Press o to open an album or playlist")
	}

	var b strings.Builder

	if l.filtering || l.filterQuery != "" {
		b.WriteString(" " + l.filterInput.View())
	}
	b.WriteString("\n")

	if l.Len() == 0 {
		b.WriteString(styles.DimStyle.Render("  No matching tracks"))
		return b.String()
	}

	end := l.offset + l.PageSize()
	if end > l.Len() {
		end = l.Len()
	}
	for row := l.offset; row < end; row++ {
		idx := l.trackIndex(row)
		b.WriteString(l.renderRow(idx, row == l.cursor, mark, pending))
		if row < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (l *TrackList) renderRow(idx int, selected bool, mark MarkFunc, pending bool) string {
	t := l.album.Tracks[idx]

	indicator := " "
	var indicatorColor *lipgloss.Color
	if v, ok := mark(t.ID); ok {
		if v.InLibrary {
			indicator = styles.InLibraryChar
			indicatorColor = &styles.Green
		} else {
			indicator = styles.NotInLibraryChar
			indicatorColor = &styles.DimGray
		}
	} else if pending {
		indicator = spinnerFrames[l.spinnerFrame%len(spinnerFrames)]
		indicatorColor = &styles.Accent
	}

	number := fmt.Sprintf("%2d", t.TrackNumber)
	duration := formatDuration(t.Duration)

	// indicator + number + gaps + duration
	fixed := 1 + 2 + 2 + 2 + 2 + len(duration) + 2
	titleWidth := l.width - fixed
	artistWidth := 0
	if l.width >= 80 {
		artistWidth = titleWidth / 3
		titleWidth -= artistWidth + 2
	}

	parts := []styles.RowPart{
		{Text: indicator, Foreground: indicatorColor, Bold: true},
		{Text: "  "},
		{Text: number, Foreground: &styles.DimGray},
		{Text: "  "},
	}
	parts = append(parts, l.titleParts(idx, t.Title, titleWidth)...)
	if artistWidth > 0 {
		parts = append(parts,
			styles.RowPart{Text: "  "},
			styles.RowPart{Text: padRight(styles.Truncate(t.ArtistName, artistWidth), artistWidth), Foreground: &styles.DimGray})
	}
	parts = append(parts,
		styles.RowPart{Text: "  "},
		styles.RowPart{Text: duration, Foreground: &styles.DimGray})

	return styles.RenderListRow(parts, selected, l.width)
}

// titleParts renders the title padded to width, highlighting fuzzy matches
func (l *TrackList) titleParts(idx int, title string, width int) []styles.RowPart {
	title = padRight(styles.Truncate(title, width), width)

	slot, ok := l.matched[idx]
	if !ok {
		return []styles.RowPart{{Text: title}}
	}

	hits := make(map[int]bool)
	for _, i := range l.matches[slot].MatchedIndexes {
		hits[i] = true
	}

	// Matched indexes are byte offsets into the lowercased "title artist"
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &styles.Accent
			part.Bold = true
		}
		parts = append(parts, part)
		run.Reset()
	}
	for i, r := range title {
		hit := hits[i]
		if hit != runHit {
			flush()
			runHit = hit
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "    "
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
