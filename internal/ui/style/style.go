// Package style provides the colours and icons shared by every terminal writer.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Leaf   = lipgloss.Color("#4CAF50")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "•"
)

// Label renders s in bold using c, for headings in plain text listings.
func Label(c lipgloss.Color, s string) string {
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(s)
}
