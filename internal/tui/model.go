package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"folio-terminal/internal/theme"
	"folio-terminal/internal/themecontrol"
	"folio-terminal/internal/themestore"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 4
	siteTitle     = "folio"
)

// Options configures a Model. Store is required; the caller owns it and
// closes it after the program exits.
type Options struct {
	Store    *themestore.Store
	Painter  themecontrol.Painter
	Context  context.Context
	Width    int
	Height   int
	Visitor  string
	Projects []Project
}

// Message types consumed by Update.
type (
	// themeReadyMsg is produced once the store finished Initialize.
	themeReadyMsg struct{ state themestore.State }
	// themeChangedMsg relays a store notification into the program.
	themeChangedMsg struct{ state themestore.State }
)

// Model is the portfolio program for one terminal.
type Model struct {
	store    *themestore.Store
	painter  themecontrol.Painter
	ctx      context.Context
	visitor  string
	projects []Project

	header *themecontrol.Control
	demo   []*themecontrol.Control

	changes     chan themestore.State
	done        chan struct{}
	closeOnce   *sync.Once
	unsubscribe func()

	keys     keyMap
	help     help.Model
	viewport viewport.Model

	page   Page
	state  themestore.State
	width  int
	height int
}

// New builds the model and binds its theme controls to the store.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	projects := opts.Projects
	if len(projects) == 0 {
		projects = DefaultProjects
	}

	m := Model{
		store:     opts.Store,
		painter:   opts.Painter,
		ctx:       ctx,
		visitor:   opts.Visitor,
		projects:  projects,
		changes:   make(chan themestore.State, 1),
		done:      make(chan struct{}),
		closeOnce: &sync.Once{},
		keys:      defaultKeys(),
		help:      help.New(),
		viewport:  viewport.New(width, max(height-chromeHeight, 1)),
		page:      PageHome,
		state:     opts.Store.State(),
		width:     width,
		height:    height,
	}

	m.header = themecontrol.Compact(opts.Store, opts.Painter)
	m.demo = []*themecontrol.Control{
		themecontrol.New(opts.Store, themecontrol.Config{Variant: themecontrol.Full, Size: themecontrol.Medium, ShowLabel: true}, opts.Painter),
		themecontrol.New(opts.Store, themecontrol.Config{Variant: themecontrol.CompactIcon, Size: themecontrol.Medium}, opts.Painter),
		themecontrol.Smart(opts.Store, opts.Painter),
	}
	m.unsubscribe = opts.Store.Subscribe(relay(m.changes))
	m.refresh()
	return m
}

// relay forwards notifications without ever blocking the store. Only the
// newest state matters, so an unread one is replaced.
func relay(ch chan themestore.State) themestore.Listener {
	return func(state themestore.State) {
		for {
			select {
			case ch <- state:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Init resolves the theme off the UI goroutine and starts listening for
// changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initialize(), m.waitForTheme())
}

func (m Model) initialize() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		store.Initialize(ctx)
		return themeReadyMsg{state: store.State()}
	}
}

func (m Model) waitForTheme() tea.Cmd {
	changes, done, ctx := m.changes, m.done, m.ctx
	return func() tea.Msg {
		select {
		case state := <-changes:
			return themeChangedMsg{state: state}
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Update advances model state in response to events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil
	case themeReadyMsg:
		m.state = msg.state
		m.refresh()
		return m, nil
	case themeChangedMsg:
		m.state = msg.state
		m.refresh()
		return m, m.waitForTheme()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.header.Activate()
	case key.Matches(msg, m.keys.Dark):
		m.store.Set(theme.Dark)
	case key.Matches(msg, m.keys.Light):
		m.store.Set(theme.Light)
	case key.Matches(msg, m.keys.Next):
		m.setPage(m.page.next())
	case key.Matches(msg, m.keys.Prev):
		m.setPage(m.page.prev())
	case key.Matches(msg, m.keys.Home):
		m.setPage(PageHome)
	case key.Matches(msg, m.keys.Projects):
		m.setPage(PageProjects)
	case key.Matches(msg, m.keys.Theme):
		m.setPage(PageAppearance)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Store changes are synchronous, so the latest state is readable now.
	m.state = m.store.State()
	m.refresh()
	return m, nil
}

func (m *Model) setPage(p Page) {
	if p == m.page {
		return
	}
	m.page = p
	m.viewport.GotoTop()
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderPage(m.page, m.pageContext()))
}

func (m Model) pageContext() pageContext {
	return pageContext{
		state:    m.state,
		styles:   m.styles(),
		renderer: m.painter.Renderer,
		width:    m.width,
		visitor:  m.visitor,
		projects: m.projects,
		demo:     m.demo,
	}
}

// styles resolves the active palette. Before mount the default palette keeps
// the page chrome readable while the controls show placeholders.
func (m Model) styles() theme.Styles {
	v := m.state.Theme
	if !m.state.Mounted {
		v = theme.Default
	}
	return m.painter.Styles(v)
}

// View renders header, page viewport, and key help.
func (m Model) View() string {
	return strings.Join([]string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderHeader() string {
	styles := m.styles()
	tabs := make([]string, 0, len(pageTitles))
	for i, title := range pageTitles {
		var label string
		if Page(i) == m.page {
			label = styles.Header.Render("[" + title + "]")
		} else {
			label = styles.Muted.Render(" " + title + " ")
		}
		tabs = append(tabs, label)
	}

	left := styles.Header.Bold(true).Render(siteTitle) + "  " + strings.Join(tabs, " ")
	control := m.header.View()
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(control), 1)
	line := left + strings.Repeat(" ", gap) + control

	rule := styles.Muted.Render(strings.Repeat("─", max(m.width, 1)))
	return line + "\n" + rule
}

func (m Model) renderFooter() string {
	styles := m.styles()
	hint := styles.Muted.Render(m.header.Hint())
	return hint + "\n" + m.help.View(m.keys)
}

// Page returns the active page.
func (m Model) Page() Page { return m.page }

// State returns the last theme state the model rendered.
func (m Model) State() themestore.State { return m.state }

// Close releases the model's subscriptions. The store itself stays open.
func (m Model) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.header.Close()
		for _, c := range m.demo {
			c.Close()
		}
	})
}

// Snapshot renders one page without running a program, for non-interactive
// output. It initializes the store if needed.
func Snapshot(opts Options, page Page) string {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	opts.Store.Initialize(opts.Context)

	m := New(opts)
	defer m.Close()
	m.setPage(page)
	m.refresh()
	return m.renderHeader() + "\n" + renderPage(m.page, m.pageContext())
}
