package styles

import "github.com/charmbracelet/lipgloss"

// Palette is a set of theme colors
type Palette struct {
	Accent     lipgloss.Color
	Background lipgloss.Color
	Selection  lipgloss.Color
	Dim        lipgloss.Color
	Text       lipgloss.Color
	Bright     lipgloss.Color
	InLibrary  lipgloss.Color
	Error      lipgloss.Color
}

// Themes selectable with ui.theme
var Themes = map[string]Palette{
	"default": {
		Accent:     lipgloss.Color("#FA2D48"),
		Background: lipgloss.Color("#1F2937"),
		Selection:  lipgloss.Color("#374151"),
		Dim:        lipgloss.Color("#6B7280"),
		Text:       lipgloss.Color("#9CA3AF"),
		Bright:     lipgloss.Color("#F9FAFB"),
		InLibrary:  lipgloss.Color("#10B981"),
		Error:      lipgloss.Color("#EF4444"),
	},
	"mono": {
		Accent:     lipgloss.Color("#F9FAFB"),
		Background: lipgloss.Color("#111111"),
		Selection:  lipgloss.Color("#3A3A3A"),
		Dim:        lipgloss.Color("#6B6B6B"),
		Text:       lipgloss.Color("#B0B0B0"),
		Bright:     lipgloss.Color("#FFFFFF"),
		InLibrary:  lipgloss.Color("#FFFFFF"),
		Error:      lipgloss.Color("#B0B0B0"),
	},
}

// Color palette
var (
	Accent     lipgloss.Color
	SlateDark  lipgloss.Color
	SlateLight lipgloss.Color
	DimGray    lipgloss.Color
	LightGray  lipgloss.Color
	White      lipgloss.Color
	Green      lipgloss.Color
	Red        lipgloss.Color
)

// Text styles
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	DimStyle       lipgloss.Style
	AccentStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	SpinnerStyle   lipgloss.Style
	HelpKeyStyle   lipgloss.Style
	HelpDescStyle  lipgloss.Style
	FilterStyle    lipgloss.Style
	BadgeStyle     lipgloss.Style
	DimBadgeStyle  lipgloss.Style
	ModalStyle     lipgloss.Style
	HeaderStyle    lipgloss.Style
	MatchHighlight lipgloss.Style
)

// Raw membership characters (unstyled)
const (
	InLibraryChar    = "✓"
	NotInLibraryChar = "·"
)

// Membership indicator styles
var (
	InLibraryStyle    lipgloss.Style
	NotInLibraryStyle lipgloss.Style
)

func init() {
	Use("default")
}

// Use switches to the named theme. Unknown names fall back to "default".
// It returns the name actually applied.
func Use(name string) string {
	p, ok := Themes[name]
	if !ok {
		name = "default"
		p = Themes[name]
	}

	Accent = p.Accent
	SlateDark = p.Background
	SlateLight = p.Selection
	DimGray = p.Dim
	LightGray = p.Text
	White = p.Bright
	Green = p.InLibrary
	Red = p.Error

	TitleStyle = lipgloss.NewStyle().Foreground(White).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(LightGray)
	DimStyle = lipgloss.NewStyle().Foreground(DimGray)
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(DimGray)

	FilterStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Padding(0, 1)
	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Background(SlateLight).
		Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(SlateDark)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true).
		Padding(0, 1)

	MatchHighlight = lipgloss.NewStyle().Foreground(Accent).Bold(true)

	InLibraryStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	NotInLibraryStyle = lipgloss.NewStyle().Foreground(DimGray)

	return name
}

// Helper functions

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// RenderListRow renders a list row with a uniform background when selected.
// Each part is styled separately to avoid ANSI reset codes clearing the
// background mid-row.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight

	var result string
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(White)
		default:
			style = style.Foreground(LightGray)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if selected {
			style = style.Background(bg)
		}
		result += style.Render(part.Text)
		visibleLen += lipgloss.Width(part.Text)
	}

	// Pad to width (minus the two margin cells)
	padStyle := lipgloss.NewStyle()
	if selected {
		padStyle = padStyle.Background(bg)
	}
	if pad := width - visibleLen - 2; pad > 0 {
		result += padStyle.Render(spaces(pad))
	}

	margin := padStyle.Render(" ")
	return margin + result + margin
}

// RowPart is a part of a row with an optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
