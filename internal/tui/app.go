package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
)

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages      map[string]Page
	activePage string
	width      int
	height     int
	forceQuit  key.Binding
}

// NewApp creates an App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	a := &App{
		pages:     make(map[string]Page, len(pages)),
		forceQuit: DefaultKeyMap().ForceQuit,
	}
	for _, p := range pages {
		if a.activePage == "" {
			a.activePage = p.ID()
		}
		a.pages[p.ID()] = p
	}
	return a
}

// ActivePage returns the id of the page currently shown.
func (a *App) ActivePage() string {
	return a.activePage
}

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.activePage]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, a.forceQuit) {
			return a, tea.Quit
		}
		return a, a.updateActive(msg)
	}
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
		return a, nil
	}

	// Async results and timers reach every page so a page that is not
	// shown still settles its in-flight fetches.
	cmds := make([]tea.Cmd, 0, len(a.pages))
	for id, p := range a.pages {
		cmd, nav := p.Update(msg)
		cmds = append(cmds, cmd)
		if id == a.activePage && nav != nil {
			cmds = append(cmds, a.navigate(nav))
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	p, ok := a.pages[a.activePage]
	if !ok {
		return nil
	}
	cmd, nav := p.Update(msg)
	if nav == nil {
		return cmd
	}
	return tea.Batch(cmd, a.navigate(nav))
}

func (a *App) navigate(nav *PageNav) tea.Cmd {
	next, ok := a.pages[nav.PageID]
	if !ok || nav.PageID == a.activePage {
		return nil
	}
	a.activePage = nav.PageID
	return next.Init()
}

func (a *App) View() string {
	if p, ok := a.pages[a.activePage]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}
