// Package tui is the terminal dashboard for a running poolstat service.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	minUpdateInterval = time.Second
	maxUpdateInterval = 5 * time.Minute
	fetchTimeout      = 15 * time.Second

	historyWindow = 24 * time.Hour
	historyLimit  = 1440
)

// Backend is the read surface the dashboard polls. socketrpc.Client
// satisfies it.
type Backend interface {
	Report(ctx context.Context) (*model.MetricsReport, error)
	Diagnostics(ctx context.Context) (*model.Diagnostics, error)
	History(ctx context.Context, window time.Duration, limit int) ([]model.HashrateSample, error)
}

// TickMsg drives periodic refresh.
type TickMsg time.Time

type reportLoadedMsg struct {
	report          *model.MetricsReport
	history         []model.HashrateSample
	historyDisabled bool
	err             error
	at              time.Time
}

// DashboardPage shows hashrate, block odds, pool status and recent shares.
type DashboardPage struct {
	backend        Backend
	updateInterval time.Duration
	source         string
	keys           KeyMap
	help           help.Model

	report          *model.MetricsReport
	history         []model.HashrateSample
	historyDisabled bool
	lastErr         string
	lastUpdate      time.Time

	fetchInFlight bool
	paused        bool
	tickPending   bool
}

// NewDashboardPage returns the dashboard polling backend every interval.
// source labels the connection in the status bar.
func NewDashboardPage(backend Backend, interval time.Duration, source string) *DashboardPage {
	if interval <= 0 {
		interval = model.DefaultUpdateInterval
	}
	return &DashboardPage{
		backend:        backend,
		updateInterval: clampInterval(interval),
		source:         source,
		keys:           DefaultKeyMap(),
		help:           help.New(),
	}
}

func (d *DashboardPage) ID() string { return PageDashboard }

func (d *DashboardPage) Init() tea.Cmd {
	cmds := []tea.Cmd{d.fetch()}
	if !d.tickPending {
		d.tickPending = true
		cmds = append(cmds, d.tick())
	}
	if d.report == nil {
		cmds = append(cmds, spinnerTick())
	}
	return tea.Batch(cmds...)
}

func (d *DashboardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.handleKey(msg)

	case TickMsg:
		d.tickPending = true
		next := d.tick()
		if d.paused {
			return next, nil
		}
		return tea.Batch(d.fetch(), next), nil

	case SpinnerTickMsg:
		if d.report == nil && d.fetchInFlight {
			return spinnerTick(), nil
		}
		return nil, nil

	case reportLoadedMsg:
		d.fetchInFlight = false
		d.lastUpdate = msg.at
		if msg.err != nil {
			d.lastErr = msg.err.Error()
			return nil, nil
		}
		d.lastErr = ""
		d.report = msg.report
		d.history = msg.history
		d.historyDisabled = msg.historyDisabled
	}
	return nil, nil
}

func (d *DashboardPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, d.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, d.keys.Help):
		d.help.ShowAll = !d.help.ShowAll
	case key.Matches(msg, d.keys.Refresh):
		return d.fetch(), nil
	case key.Matches(msg, d.keys.Pause):
		d.paused = !d.paused
	case key.Matches(msg, d.keys.IntervalUp):
		d.updateInterval = clampInterval(d.updateInterval * 2)
	case key.Matches(msg, d.keys.IntervalDown):
		d.updateInterval = clampInterval(d.updateInterval / 2)
	case key.Matches(msg, d.keys.Diagnostics):
		return nil, &PageNav{PageID: PageDiagnostics}
	}
	return nil, nil
}

func clampInterval(v time.Duration) time.Duration {
	return min(max(v, minUpdateInterval), maxUpdateInterval)
}

func (d *DashboardPage) tick() tea.Cmd {
	return tea.Tick(d.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetch loads the report and history off the UI goroutine. Overlapping
// fetches are collapsed into the one already in flight.
func (d *DashboardPage) fetch() tea.Cmd {
	if d.fetchInFlight || d.backend == nil {
		return nil
	}
	d.fetchInFlight = true
	backend := d.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msg := reportLoadedMsg{at: time.Now()}
		msg.report, msg.err = backend.Report(ctx)
		if msg.err != nil {
			return msg
		}
		history, err := backend.History(ctx, historyWindow, historyLimit)
		switch {
		case errors.Is(err, model.ErrHistoryDisabled):
			msg.historyDisabled = true
		case err == nil:
			msg.history = history
		}
		return msg
	}
}

func (d *DashboardPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	header := d.renderHeader(width)
	footer := d.renderFooter(width)
	bodyH := height - lipgloss.Height(header) - lipgloss.Height(footer)

	if d.report == nil {
		body := renderLoadingPlaceholder(width, max(bodyH, 1))
		if d.lastErr != "" && !d.fetchInFlight {
			body = lipgloss.Place(width, max(bodyH, 1), lipgloss.Center, lipgloss.Center, errorStyle.Render(d.lastErr))
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	}

	rep := d.report
	topH := 13
	midH := chartHeight + 4
	bottomH := max(bodyH-topH-midH, 6)

	colW := width / 3
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		renderHashratePanel(rep, colW, topH),
		renderOddsPanel(rep, colW, topH),
		renderPoolPanel(rep, width-2*colW, topH),
	)
	halfW := width / 2
	mid := lipgloss.JoinHorizontal(lipgloss.Top,
		renderWorkerChart(rep.ShareAgg.ByWorker, halfW, midH),
		renderHistoryPanel(d.history, d.historyDisabled, width-halfW, midH),
	)
	bottom := renderRecentShares(rep.RecentShares, width, bottomH)

	return lipgloss.JoinVertical(lipgloss.Left, header, top, mid, bottom, footer)
}

func (d *DashboardPage) renderHeader(width int) string {
	left := renderBranding()
	if d.report != nil {
		left += statusBarStyle.Render(" " + truncate(d.report.Config.BTCAddress, 48))
	}

	var right string
	switch {
	case d.lastErr != "":
		right = "error: " + d.lastErr
	case d.paused:
		right = "PAUSED"
	case !d.lastUpdate.IsZero():
		right = fmt.Sprintf("updated %s", d.lastUpdate.Format("15:04:05"))
	}
	right = fmt.Sprintf("%s • every %s ", right, d.updateInterval)
	if d.source != "" {
		right = d.source + " • " + right
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = truncate(right, max(width-lipgloss.Width(left)-1, 0))
		gap = max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	}
	return left + statusBarStyle.Render(strings.Repeat(" ", gap)+right)
}

func (d *DashboardPage) renderFooter(width int) string {
	d.help.Width = width
	line := d.help.View(d.keys)
	if d.report != nil && d.report.Config.LogPath != "" {
		line = lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(truncate("log: "+d.report.Config.LogPath, width)), line)
	}
	return line
}
