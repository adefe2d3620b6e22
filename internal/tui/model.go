// Package tui provides the Bubble Tea joke viewer.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"daily-joke/internal/models"
	"daily-joke/internal/viewmodel"
)

type Controller interface {
	Handle(ev viewmodel.Event)
	State() viewmodel.UiState
	Subscribe() (<-chan viewmodel.UiState, func())
}

type screen int

const (
	screenJoke screen = iota
	screenFavorites
)

// categoryChoices is the cycle order of the category picker.
var categoryChoices = append([]string{models.CategoryAny}, models.Categories...)

type stateMsg struct {
	state viewmodel.UiState
}

type stateClosedMsg struct{}

// Model implements the Bubble Tea joke UI.
type Model struct {
	ctrl        Controller
	updates     <-chan viewmodel.UiState
	unsubscribe func()

	state    viewmodel.UiState
	spinner  spinner.Model
	screen   screen
	revealed bool
	lastJoke *models.Joke
	category int
	cursor   int

	width  int
	height int
}

// NewModel subscribes to ctrl. Call Close when the program exits.
func NewModel(ctrl Controller) *Model {
	updates, unsubscribe := ctrl.Subscribe()
	m := &Model{
		ctrl:        ctrl,
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       ctrl.State(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}
	m.trackJoke()
	return m
}

func (m *Model) Close() {
	m.unsubscribe()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForState(m.updates))
}

func waitForState(updates <-chan viewmodel.UiState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg{state: s}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stateMsg:
		m.state = msg.state
		m.trackJoke()
		m.clampCursor()
		return m, waitForState(m.updates)
	case stateClosedMsg:
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenFavorites {
			return m.updateFavorites(msg)
		}
		return m.updateJoke(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateJoke(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		m.loadSelected()
	case "r":
		m.ctrl.Handle(viewmodel.RefreshJoke{})
	case "c":
		m.category = (m.category + 1) % len(categoryChoices)
		m.loadSelected()
	case "s":
		m.toggleFavorite()
	case " ":
		m.revealed = true
	case "f":
		m.screen = screenFavorites
		m.clampCursor()
	case "e", "esc":
		m.ctrl.Handle(viewmodel.ClearError{})
	case "enter":
		if m.state.HasError() {
			m.ctrl.Handle(viewmodel.ClearError{})
			m.loadSelected()
		} else {
			m.revealed = true
		}
	}
	return m, nil
}

func (m *Model) updateFavorites(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "f", "b":
		m.screen = screenJoke
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.FavoriteJokes)-1 {
			m.cursor++
		}
	case "d", "x":
		if m.cursor < len(m.state.FavoriteJokes) {
			m.ctrl.Handle(viewmodel.RemoveFromFavorites{Joke: m.state.FavoriteJokes[m.cursor]})
		}
	}
	return m, nil
}

func (m *Model) selectedCategory() string {
	return categoryChoices[m.category]
}

func (m *Model) loadSelected() {
	if c := m.selectedCategory(); c != models.CategoryAny {
		m.ctrl.Handle(viewmodel.LoadJokeByCategory{Category: c})
		return
	}
	m.ctrl.Handle(viewmodel.LoadJoke{})
}

func (m *Model) toggleFavorite() {
	if m.state.Joke == nil {
		return
	}
	if m.state.IsFavorite() {
		m.ctrl.Handle(viewmodel.RemoveFromFavorites{Joke: *m.state.Joke})
		return
	}
	m.ctrl.Handle(viewmodel.SaveFavoriteJoke{})
}

// trackJoke hides the punchline again whenever a different joke arrives.
func (m *Model) trackJoke() {
	j := m.state.Joke
	if j == nil {
		return
	}
	if m.lastJoke == nil || *m.lastJoke != *j {
		m.revealed = false
		cp := *j
		m.lastJoke = &cp
	}
}

func (m *Model) clampCursor() {
	if n := len(m.state.FavoriteJokes); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}
