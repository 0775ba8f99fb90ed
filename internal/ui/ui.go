package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/streamlyhq/streamly/internal/formatter"
	"github.com/streamlyhq/streamly/internal/streamly"
	"github.com/streamlyhq/streamly/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	DetailView
	ConfirmView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	videos   tasks.VideoAPI
	engine   *tasks.VideoEngine
	open     func(url string) error
	pageSize int

	width  int
	height int

	catalog  list.Model
	selected *streamly.Video
	watchURL string
	opened   bool
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// open launches playback in the system browser; pass nil to only resolve the
// URL without opening anything.
func NewModel(ctx context.Context, videos tasks.VideoAPI, engine *tasks.VideoEngine, open func(url string) error, pageSize int) *Model {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Model{
		ctx:      ctx,
		view:     CatalogView,
		videos:   videos,
		engine:   engine,
		open:     open,
		pageSize: pageSize,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the published catalog.
func (m *Model) Init() tea.Cmd {
	return m.fetchCatalog()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.catalog.Width() == 0 {
			m.catalog.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case catalogFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.page.Content))
		for i, v := range msg.page.Content {
			items[i] = videoItem{video: v}
		}
		m.catalog = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.catalog.Title = fmt.Sprintf("Streamly Catalog (%d videos)", msg.page.TotalElements)
		m.catalog.SetSize(m.width-4, m.height-8)
		return m, nil

	case detailFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = CatalogView
			return m, nil
		}
		m.selected = msg.video
		m.view = DetailView
		return m, nil

	case watchResolvedMsg:
		m.watchURL = msg.url
		m.opened = msg.opened
		m.err = msg.err
		if msg.video != nil {
			m.selected = msg.video
		}
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CatalogView:
		return m.renderCatalog()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.catalog.SelectedItem()
		if selected != nil {
			if item, ok := selected.(videoItem); ok {
				return m, m.fetchDetail(item.video.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.catalog, cmd = m.catalog.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CatalogView
		return m, nil
	case "enter", "w":
		m.view = ConfirmView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = DetailView
		return m, nil
	case "y":
		return m, m.resolveWatch()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = CatalogView
		m.selected = nil
		m.watchURL = ""
		m.opened = false
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == CatalogView {
		m.catalog, cmd = m.catalog.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		page, err := m.videos.Published(m.ctx, 0, m.pageSize)
		return catalogFetchedMsg{page: page, err: err}
	}
}

func (m *Model) fetchDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		video, err := m.videos.Get(m.ctx, id)
		return detailFetchedMsg{video: video, err: err}
	}
}

func (m *Model) resolveWatch() tea.Cmd {
	id := m.selected.ID
	return func() tea.Msg {
		url, video, err := m.engine.Watch(m.ctx, id)
		if err != nil {
			return watchResolvedMsg{video: video, err: err}
		}

		opened := false
		if m.open != nil {
			if oerr := m.open(url); oerr == nil {
				opened = true
			}
		}
		return watchResolvedMsg{url: url, video: video, opened: opened}
	}
}

func (m *Model) renderCatalog() string {
	helpKeys := []key.Binding{m.keys.details, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.catalog.View(), helpView)
}

func (m *Model) renderDetail() string {
	v := m.selected
	if v == nil {
		return styles.err.Render("No video selected\n\nPress esc to go back")
	}

	title := styles.title.Render(v.Title)
	info := fmt.Sprintf("\nUploader: %s\nCategory: %s\nDuration: %s\nViews: %d\nRating: %s\n",
		v.UploaderName, v.Category, formatter.FormatDuration(v.DurationSeconds), v.ViewCount, v.AgeRating)
	if v.Description != "" {
		info += fmt.Sprintf("\n%s\n", v.Description)
	}
	if !v.Watchable() {
		info += "\n" + styles.warn.Render(fmt.Sprintf("Not watchable yet (status %s, approval %s)", v.Status, v.ApprovalStatus))
	}

	helpKeys := []key.Binding{m.keys.watch, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Watch '%s' in your browser?", m.selected.Title))

	helpKeys := []key.Binding{m.keys.confirm, m.keys.cancel, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Playback failed: %v\n\nPress r to browse, q to quit", m.err))
	}

	title := styles.ok.Render("✓ Ready to watch")
	info := fmt.Sprintf("\n%s\n%s\n", m.selected.Title, m.watchURL)
	if m.opened {
		info += styles.help.Render("Opened in your browser.")
	} else {
		info += styles.help.Render("Open the URL above to start playback.")
	}

	helpKeys := []key.Binding{m.keys.browse, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
