package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	chartHeight       = 8
	workerLegendWidth = 24
)

// panel frames content with a titled rounded border of the given outer size.
func panel(title, content string, width, height int) string {
	innerW := max(width-4, 1)
	body := lipgloss.JoinVertical(lipgloss.Left, chartTitleStyle.Render(truncate(title, innerW)), content)
	return sectionStyle.Width(width - 2).Height(max(height-2, 1)).Render(body)
}

// kvLines renders aligned label/value rows.
func kvLines(rows [][2]string, width int) string {
	labelW := 0
	for _, r := range rows {
		labelW = max(labelW, len(r[0]))
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		label := labelStyle.Render(fmt.Sprintf("%-*s", labelW, r[0]))
		lines = append(lines, label+"  "+valueStyle.Render(truncate(r[1], max(width-labelW-2, 1))))
	}
	return strings.Join(lines, "\n")
}

func renderHashratePanel(rep *model.MetricsReport, width, height int) string {
	rows := [][2]string{
		{"1m", formatTHs(rep.Hashrate1minTHs)},
		{"5m", formatTHs(rep.Hashrate5minTHs)},
		{"1h", formatTHs(rep.Hashrate1hrTHs)},
		{"1d", formatTHs(rep.Hashrate1dTHs)},
		{"7d", formatTHs(rep.Hashrate7dTHs)},
		{"Workers", fmt.Sprintf("%d", rep.WorkerCount)},
		{"Best share", formatSI(rep.BestShares)},
		{"Accepted", formatSI(rep.AcceptedShares)},
		{"Last share", rep.LastShareTime},
	}
	return panel("Hashrate", kvLines(rows, width-4), width, height)
}

func renderOddsPanel(rep *model.MetricsReport, width, height int) string {
	rows := [][2]string{
		{"Network diff", formatSI(rep.NetworkDifficulty)},
		{"24 hours", formatOdds(rep.Odds24hrPercent)},
		{"7 days", formatOdds(rep.Odds7dPercent)},
		{"30 days", formatOdds(rep.Odds30dPercent)},
		{"1 year", formatOdds(rep.Odds1yrPercent)},
	}
	if wi := rep.LastWorkInfo; wi != nil {
		rows = append(rows, [2]string{"Workinfo", fmt.Sprintf("%x", wi.WorkInfoID)})
	}
	if len(rep.ComedFuturePrices) > 0 {
		p := rep.ComedFuturePrices[len(rep.ComedFuturePrices)-1]
		rows = append(rows, [2]string{"Power", fmt.Sprintf("%s¢ @ %s", p.Price, p.Time)})
	}
	return panel("Block odds", kvLines(rows, width-4), width, height)
}

// poolRows lists the pool fields shown on the dashboard, in display order.
var poolRows = []struct{ key, label string }{
	{"users", "Users"},
	{"workers", "Workers"},
	{"idle", "Idle"},
	{"hashrate1m", "Hashrate 1m"},
	{"hashrate1hr", "Hashrate 1h"},
	{"SPS1m", "SPS 1m"},
	{"accepted", "Accepted"},
	{"rejected", "Rejected"},
	{"bestshare", "Best share"},
}

func renderPoolPanel(rep *model.MetricsReport, width, height int) string {
	var rows [][2]string
	if rep.PoolRuntimeHuman != "" {
		rows = append(rows, [2]string{"Runtime", rep.PoolRuntimeHuman})
	}
	for _, r := range poolRows {
		v, ok := rep.Pool[r.key]
		if !ok {
			continue
		}
		rows = append(rows, [2]string{r.label, poolValue(v)})
	}
	if len(rows) == 0 {
		return panel("Pool", helpStyle.Render("No pool status yet"), width, height)
	}
	return panel("Pool", kvLines(rows, width-4), width, height)
}

func poolValue(v any) string {
	switch n := v.(type) {
	case float64:
		if n >= 1000 {
			return formatSI(n)
		}
		return fmt.Sprintf("%g", n)
	case int64:
		return formatSI(float64(n))
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}

// renderWorkerChart draws recent shares per worker as bars with a legend.
func renderWorkerChart(counts model.OrderedCounts, width, height int) string {
	title := "Shares by worker"
	if len(counts) == 0 {
		return panel(title, helpStyle.Render("No recent shares"), width, height)
	}

	innerW := max(width-4, 10)
	chartW := max(innerW-workerLegendWidth-2, 10)
	h := min(chartHeight, max(height-3, 3))
	maxBars := min(max(chartW/3, 1), len(counts), h)

	bc := barchart.New(chartW, h,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(2),
		barchart.WithNoAxis(),
	)
	legend := make([]string, 0, maxBars)
	for i := 0; i < maxBars; i++ {
		nc := counts[i]
		color := workerBarColors[i%len(workerBarColors)]
		style := lipgloss.NewStyle().Foreground(color).Background(color)
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: nc.Name, Value: float64(nc.Count), Style: style}},
		})
		label := truncate(nc.Name, workerLegendWidth-8)
		legend = append(legend, lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%-*s %6d", workerLegendWidth-8, label, nc.Count)))
	}
	bc.Draw()

	body := lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", strings.Join(legend, "\n"))
	return panel(title, body, width, height)
}

// renderHistoryPanel draws the stored 1m hashrate samples as a sparkline.
func renderHistoryPanel(samples []model.HashrateSample, disabled bool, width, height int) string {
	title := "Hashrate history"
	switch {
	case disabled:
		return panel(title, helpStyle.Render("History disabled on the server"), width, height)
	case len(samples) == 0:
		return panel(title, helpStyle.Render("No samples yet"), width, height)
	}

	innerW := max(width-4, 10)
	h := min(chartHeight, max(height-4, 2))
	sl := sparkline.New(innerW, h)

	// Keep the newest samples that fit, one column each.
	start := max(len(samples)-innerW, 0)
	lo, hi := samples[start].Hashrate1m, samples[start].Hashrate1m
	for _, s := range samples[start:] {
		sl.Push(s.Hashrate1m)
		lo = min(lo, s.Hashrate1m)
		hi = max(hi, s.Hashrate1m)
	}
	sl.Draw()

	first := samples[start].Timestamp.Local().Format("15:04")
	last := samples[len(samples)-1].Timestamp.Local().Format("15:04")
	footer := labelStyle.Render(fmt.Sprintf("%s to %s  min %sH/s  max %sH/s", first, last, formatSI(lo), formatSI(hi)))
	line := lipgloss.NewStyle().Foreground(ColorGreen).Render(sl.View())
	return panel(title, lipgloss.JoinVertical(lipgloss.Left, line, footer), width, height)
}

// recentSharesTable renders the newest shares with a bubbles table.
func recentSharesTable(shares []model.ShareRecord, width, rows int) string {
	workerW := max(width-4-10-12-12-8, 10)
	cols := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Worker", Width: workerW},
		{Title: "SDiff", Width: 12},
		{Title: "Diff", Width: 12},
		{Title: "Agent", Width: 8},
	}
	data := make([]table.Row, 0, min(len(shares), rows))
	for _, s := range shares {
		if len(data) == rows {
			break
		}
		data = append(data, table.Row{
			shareClock(s.Timestamp, nil),
			s.WorkerName,
			formatSI(s.SDiff),
			formatSI(s.Diff),
			s.Agent,
		})
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(ColorTeal).Bold(true)
	styles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(data),
		table.WithHeight(max(rows, 1)+1),
		table.WithFocused(false),
		table.WithStyles(styles),
	)
	return t.View()
}

func renderRecentShares(shares []model.ShareRecord, width, height int) string {
	title := fmt.Sprintf("Recent shares (%d)", len(shares))
	if len(shares) == 0 {
		return panel(title, helpStyle.Render("No accepted shares in the log"), width, height)
	}
	return panel(title, recentSharesTable(shares, width, max(height-5, 1)), width, height)
}
