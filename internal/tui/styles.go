package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#1B2238")
	ColorWhite  = lipgloss.Color("#F5F5F5")
	ColorGray   = lipgloss.Color("245")
	ColorGreen  = lipgloss.Color("#49E209")
	ColorTeal   = lipgloss.Color("#00CAC7")
	ColorBlue   = lipgloss.Color("39")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorTeal).
			Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	errorStyle = lipgloss.NewStyle().Foreground(ColorRed)

	statusBarStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	// workerBarColors cycle across the bars of the shares-by-worker chart.
	workerBarColors = []lipgloss.Color{ColorGreen, ColorTeal, ColorBlue, ColorOrange, lipgloss.Color("201"), lipgloss.Color("226")}
)

// renderBranding renders "poolstat" with a green to teal gradient.
func renderBranding() string {
	colors := []string{"#49E209", "#35DD2F", "#21D955", "#0DD47B", "#00D0A1", "#00CDB4", "#00CBBE", "#00CAC7"}
	var out string
	for i, ch := range "poolstat" {
		out += lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(lipgloss.Color(colors[i%len(colors)])).
			Bold(true).
			Render(string(ch))
	}
	return out
}
