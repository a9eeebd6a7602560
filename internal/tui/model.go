package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"stylist/internal/domain"
	"stylist/internal/ingest"
	"stylist/internal/matching"
)

// StylistPort is the TUI-facing subset of the stylist service.
type StylistPort interface {
	IngestFiles(ctx context.Context, patterns []string) (domain.BatchSummary, []string, error)
	FindOutfit(ctx context.Context, query string) (domain.MatchResult, error)
	RecentlyAdded() []domain.ClothingItem
	BatchSnapshot() ingest.Snapshot
	SubscribeBatch(fn func(ingest.Update)) (unsubscribe func())
	SubscribeMatch(fn func(matching.Update)) (unsubscribe func())
}

type tab int

const (
	tabWardrobe tab = iota
	tabOutfit
)

type (
	batchMsg  ingest.Update
	matchMsg  matching.Update
	ingestMsg struct {
		summary domain.BatchSummary
		skipped []string
		err     error
	}
	outfitMsg struct {
		err error
	}
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   StylistPort
	tab       tab
	paths     textinput.Model
	query     textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	entries   []domain.ProcessingEntry
	recent    []domain.ClothingItem
	toast     string
	status    string
	ingesting bool
	phase     matching.Phase
	result    *domain.MatchResult
	matchErr  string
	ready     bool
}

// New creates a new TUI model instance.
func New(service StylistPort) Model {
	paths := textinput.New()
	paths.Prompt = "files> "
	paths.Placeholder = "Image paths or globs, e.g. ~/closet/*.jpg"
	paths.Focus()

	query := textinput.New()
	query.Prompt = "style> "
	query.Placeholder = "Describe the occasion, e.g. dinner date on a rainy evening"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	snap := service.BatchSnapshot()
	return Model{
		service:   service,
		paths:     paths,
		query:     query,
		spinner:   sp,
		viewport:  viewport.New(0, 0),
		entries:   snap.Entries,
		ingesting: snap.Processing,
		recent:    service.RecentlyAdded(),
		status:    "Tab switches pages. Enter submits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.spinner.Tick) }

// Update handles key, service and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := bodyStyle.GetFrameSize()
		reserved := 2 + 3 + 1 + fh // tabs+spacer, input box, status
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m.switchTab()
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			return m.submit()
		}

	case batchMsg:
		m.applyBatch(ingest.Update(msg))
		m.refresh()
		return m, nil

	case matchMsg:
		m.applyMatch(matching.Update(msg))
		m.refresh()
		return m, nil

	case ingestMsg:
		m.ingesting = false
		switch {
		case msg.err != nil:
			m.status = "Upload: " + msg.err.Error()
		case len(msg.skipped) > 0:
			m.status = fmt.Sprintf("Skipped %d unsupported path(s).", len(msg.skipped))
		default:
			m.status = ""
		}
		m.refresh()
		return m, nil

	case outfitMsg:
		m.phase = matching.PhaseIdle
		if msg.err != nil {
			m.matchErr = msg.err.Error()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if m.tab == tabWardrobe {
		m.paths, cmd = m.paths.Update(msg)
	} else {
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchTab() {
	if m.tab == tabWardrobe {
		m.tab = tabOutfit
		m.paths.Blur()
		m.query.Focus()
		return
	}
	m.tab = tabWardrobe
	m.query.Blur()
	m.paths.Focus()
}

func (m Model) busy() bool { return m.ingesting || m.phase != matching.PhaseIdle }

// submit starts an upload batch or an outfit query. Input is ignored while
// the same kind of work is running.
func (m Model) submit() (tea.Model, tea.Cmd) {
	svc := m.service
	if m.tab == tabWardrobe {
		if m.ingesting {
			m.status = "Upload in progress..."
			return m, nil
		}
		patterns := strings.Fields(m.paths.Value())
		if len(patterns) == 0 {
			return m, nil
		}
		m.ingesting = true
		m.toast = ""
		m.status = ""
		m.paths.Reset()
		m.refresh()
		return m, func() tea.Msg {
			summary, skipped, err := svc.IngestFiles(context.Background(), patterns)
			return ingestMsg{summary: summary, skipped: skipped, err: err}
		}
	}

	if m.phase != matching.PhaseIdle {
		return m, nil
	}
	q := strings.TrimSpace(m.query.Value())
	if q == "" {
		return m, nil
	}
	m.phase = matching.PhaseSearching
	m.matchErr = ""
	m.refresh()
	return m, func() tea.Msg {
		_, err := svc.FindOutfit(context.Background(), q)
		return outfitMsg{err: err}
	}
}

func (m *Model) applyBatch(u ingest.Update) {
	switch u.Kind {
	case ingest.UpdateEntry:
		m.ingesting = true
		for len(m.entries) <= u.Index {
			m.entries = append(m.entries, domain.ProcessingEntry{})
		}
		m.entries[u.Index] = u.Entry
	case ingest.UpdateItemAdded:
		m.recent = m.service.RecentlyAdded()
	case ingest.UpdateFinished:
		m.ingesting = false
		m.toast = u.Summary.Message()
	case ingest.UpdateCleared:
		m.entries = nil
		m.toast = ""
	}
}

func (m *Model) applyMatch(u matching.Update) {
	m.phase = u.Phase
	if u.Result != nil {
		res := *u.Result
		m.result = &res
		m.matchErr = ""
	}
	if u.Err != nil {
		m.matchErr = u.Err.Error()
	}
}

func (m *Model) refresh() {
	if m.tab == tabWardrobe {
		m.viewport.SetContent(m.renderWardrobe())
	} else {
		m.viewport.SetContent(m.renderOutfit())
	}
}

// View renders the TUI layout and the active page.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var input string
	if m.tab == tabWardrobe {
		input = inputBoxStyle.Render(m.paths.View())
	} else {
		input = inputBoxStyle.Render(m.query.View())
	}
	status := statusStyle.Render(m.status)
	return m.renderTabs() + "\n" + bodyStyle.Render(m.viewport.View()) + "\n" + input + "\n" + status
}
