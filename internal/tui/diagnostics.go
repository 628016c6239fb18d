package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/poolstat/internal/model"
)

type diagnosticsLoadedMsg struct {
	diag *model.Diagnostics
	err  error
}

// DiagnosticsPage shows what the last parse kept and what it skipped.
type DiagnosticsPage struct {
	backend Backend
	keys    KeyMap
	diag    *model.Diagnostics
	lastErr string
	loading bool
}

// NewDiagnosticsPage returns the diagnostics page.
func NewDiagnosticsPage(backend Backend) *DiagnosticsPage {
	return &DiagnosticsPage{backend: backend, keys: DefaultKeyMap()}
}

func (p *DiagnosticsPage) ID() string { return PageDiagnostics }

func (p *DiagnosticsPage) Init() tea.Cmd {
	return p.fetch()
}

func (p *DiagnosticsPage) fetch() tea.Cmd {
	if p.loading || p.backend == nil {
		return nil
	}
	p.loading = true
	backend := p.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		diag, err := backend.Diagnostics(ctx)
		return diagnosticsLoadedMsg{diag: diag, err: err}
	}
}

func (p *DiagnosticsPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Back):
			return nil, &PageNav{PageID: PageDashboard}
		case key.Matches(msg, p.keys.Refresh):
			return p.fetch(), nil
		}
	case diagnosticsLoadedMsg:
		p.loading = false
		if msg.err != nil {
			p.lastErr = msg.err.Error()
			return nil, nil
		}
		p.lastErr = ""
		p.diag = msg.diag
	}
	return nil, nil
}

func (p *DiagnosticsPage) View(width, height int) string {
	title := renderBranding() + statusBarStyle.Render(" diagnostics ")
	footer := helpStyle.Render("r: refresh • esc: back • q: quit")
	bodyH := max(height-2, 1)

	if p.diag == nil {
		body := renderLoadingPlaceholder(width, bodyH)
		if p.lastErr != "" {
			body = lipgloss.Place(width, bodyH, lipgloss.Center, lipgloss.Center, errorStyle.Render(p.lastErr))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, body, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, renderDiagnostics(p.diag, width), footer)
}

func renderDiagnostics(d *model.Diagnostics, width int) string {
	rows := [][2]string{
		{"Log", d.LogPath},
		{"Lines read", fmt.Sprintf("%d", d.LinesRead)},
		{"Metric events", fmt.Sprintf("%d", d.MetricEvents)},
		{"Repaired", fmt.Sprintf("%d", d.Repaired)},
		{"Shares accepted", fmt.Sprintf("%d", d.SharesAccepted)},
		{"Worker lines", fmt.Sprintf("%d", d.WorkerLines)},
		{"User found", fmt.Sprintf("%t", d.UserFound)},
		{"Pool lines", fmt.Sprintf("%d", d.PoolLines)},
	}
	if d.ReadError != "" {
		rows = append(rows, [2]string{"Read error", d.ReadError})
	}
	summary := panel("Parse", kvLines(rows, width-4), width, len(rows)+3)

	var skipped string
	if d.TotalSkipped() == 0 {
		skipped = helpStyle.Render("Nothing skipped")
	} else {
		lines := make([]string, 0, len(d.Skipped)+1)
		for _, reason := range d.SkipReasons() {
			lines = append(lines, fmt.Sprintf("%-22s %8d", reason, d.Skipped[reason]))
		}
		lines = append(lines, fmt.Sprintf("%-22s %8d", "total", d.TotalSkipped()))
		skipped = strings.Join(lines, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, summary, panel("Skipped", skipped, width, lipgloss.Height(skipped)+3))
}
