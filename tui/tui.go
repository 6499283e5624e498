// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen lead-capture flow over the shared controller
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fieracrm/app"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewLogin ViewMode = iota
	ViewList
	ViewCapture
	ViewReview
	ViewNewFiera
	ViewConfirmDeleteContact
	ViewConfirmDeleteFiera
)

// refreshMsg is delivered whenever the controller caches change, so
// subscription-fed updates repaint without a keypress.
type refreshMsg struct{}

// extractionDoneMsg carries the outcome of a background OCR call.
type extractionDoneMsg struct{ err error }

// Model is the main bubbletea model
type Model struct {
	ctrl     *app.Controller
	viewMode ViewMode

	// Login view state
	passwordInput textinput.Model
	loginErr      string

	// List view state
	selectedRow int
	searching   bool
	searchInput textinput.Model

	// Capture view state
	pathInput textinput.Model

	// Review view state
	fieldInputs       []textinput.Model
	focusIndex        int
	reportPane        bool
	reportRow         int
	competitorInput   textinput.Model
	editingCompetitor bool

	// New fiera view state
	fieraInput textinput.Model

	// Delete confirmation state
	deleteContactID   string
	deleteFieraID     string
	deleteFieraName   string
	deleteMoveChoices []string // fiera ids; "" means detach
	deleteMoveIndex   int

	// UI state
	width   int
	height  int
	status  string
	changes chan struct{}
}

// NewModel creates a new TUI model around a started-or-startable
// controller.
func NewModel(ctrl *app.Controller) *Model {
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.Focus()

	search := textinput.New()
	search.Placeholder = "cerca..."

	path := textinput.New()
	path.Placeholder = "/path/to/card.jpg"

	fiera := textinput.New()
	fiera.Placeholder = "nome fiera"

	m := &Model{
		ctrl:          ctrl,
		viewMode:      ViewLogin,
		passwordInput: password,
		searchInput:   search,
		pathInput:     path,
		fieraInput:    fiera,
		width:         80,
		height:        24,
		changes:       make(chan struct{}, 1),
	}
	if ctrl.Session().Authenticated() {
		m.viewMode = ViewList
	}

	ctrl.SetOnChange(func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return refreshMsg{}
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case refreshMsg:
		m.clampSelection()
		return m, m.waitForChange()
	case extractionDoneMsg:
		return m.handleExtractionDone(msg)
	}
	return m, nil
}

func (m *Model) View() string {
	switch m.viewMode {
	case ViewLogin:
		return m.renderLoginView()
	case ViewList:
		return m.renderListView()
	case ViewCapture:
		return m.renderCaptureView()
	case ViewReview:
		return m.renderReviewView()
	case ViewNewFiera:
		return m.renderNewFieraView()
	case ViewConfirmDeleteContact:
		return m.renderConfirmDeleteContactView()
	case ViewConfirmDeleteFiera:
		return m.renderConfirmDeleteFieraView()
	}
	return ""
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewLogin:
		return m.handleLoginKeys(msg)
	case ViewList:
		return m.handleListKeys(msg)
	case ViewCapture:
		return m.handleCaptureKeys(msg)
	case ViewReview:
		return m.handleReviewKeys(msg)
	case ViewNewFiera:
		return m.handleNewFieraKeys(msg)
	case ViewConfirmDeleteContact:
		return m.handleConfirmDeleteContactKeys(msg)
	case ViewConfirmDeleteFiera:
		return m.handleConfirmDeleteFieraKeys(msg)
	}

	return m, nil
}

func (m *Model) clampSelection() {
	n := len(m.ctrl.VisibleContacts())
	if m.selectedRow >= n && n > 0 {
		m.selectedRow = n - 1
	}
	if n == 0 {
		m.selectedRow = 0
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)
)
