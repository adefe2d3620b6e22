package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"daily-joke/internal/models"
)

const (
	defaultContentWidth = 60
	maxContentWidth     = 80
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	setupStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	punchlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Italic(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	favoriteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6F91"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	var body, footer string
	if m.screen == screenFavorites {
		body = m.renderFavorites()
		footer = "↑/↓ move  d remove  esc back  q quit"
	} else {
		body = m.renderJoke()
		footer = "n new  r refresh  c category  s save  space reveal  f favorites  q quit"
	}
	if m.width > 0 {
		footer = truncate(footer, m.width)
	}
	footer = footerStyle.Render(footer)

	if m.width == 0 || m.height < 3 {
		return body + "\n\n" + footer
	}
	bodyLine := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return bodyLine + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return defaultContentWidth
	}
	return min(max(int(float64(m.width)*0.7), 10), maxContentWidth)
}

func (m *Model) renderJoke() string {
	width := m.contentWidth()
	s := m.state

	header := titleStyle.Render("Daily Joke") + "  " + mutedStyle.Render("category: "+m.selectedCategory())

	var sections []string
	switch {
	case s.IsLoading && s.Joke == nil:
		sections = append(sections, m.spinner.View()+" Loading a joke...")
	case s.Joke != nil:
		sections = append(sections, m.renderCard(*s.Joke, width))
		if s.IsRefreshing {
			sections = append(sections, m.spinner.View()+" Refreshing...")
		} else if s.IsLoading {
			sections = append(sections, m.spinner.View()+" Loading...")
		}
	case !s.HasError():
		sections = append(sections, mutedStyle.Render("No joke yet. Press n to fetch one."))
	}

	if s.HasError() {
		sections = append(sections,
			errorStyle.Render(strings.Join(wrapText(s.ErrorMessage, width), "\n")),
			mutedStyle.Render("enter retry  e dismiss"),
		)
	}

	return header + "\n\n" + strings.Join(sections, "\n\n")
}

func (m *Model) renderCard(j models.Joke, width int) string {
	inner := max(width-6, 10)

	meta := mutedStyle.Render(fmt.Sprintf("#%d · %s", j.ID, j.Category))
	if m.state.IsFavorite() {
		meta += "  " + favoriteStyle.Render("♥ saved")
	}

	lines := []string{meta, "", setupStyle.Render(strings.Join(wrapText(j.Setup, inner), "\n"))}
	if j.Type == models.JokeTypeTwoPart {
		lines = append(lines, "")
		if m.revealed {
			lines = append(lines, punchlineStyle.Render(strings.Join(wrapText(j.Punchline, inner), "\n")))
		} else {
			lines = append(lines, mutedStyle.Render("press space to reveal"))
		}
	}
	return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFavorites() string {
	width := m.contentWidth()
	favs := m.state.FavoriteJokes

	header := titleStyle.Render("Favorites") + "  " + mutedStyle.Render(fmt.Sprintf("%d saved", len(favs)))
	if len(favs) == 0 {
		return header + "\n\n" + mutedStyle.Render("No favorites yet. Press s on a joke to save it.")
	}

	rows := make([]string, 0, len(favs))
	for i, j := range favs {
		line := truncate(fmt.Sprintf("#%d [%s] %s", j.ID, j.Category, oneLine(j)), width-2)
		if i == m.cursor {
			rows = append(rows, selectedStyle.Render("> "+line))
			continue
		}
		rows = append(rows, mutedStyle.Render("  "+line))
	}
	return header + "\n\n" + strings.Join(rows, "\n")
}

func oneLine(j models.Joke) string {
	if j.Type == models.JokeTypeTwoPart && j.Punchline != "" {
		return j.Setup + " / " + j.Punchline
	}
	return j.Setup
}
