package bot

import (
	"fmt"
	"strings"

	"daily-joke/internal/models"
	"daily-joke/internal/queue"
	"daily-joke/internal/viewmodel"
)

const helpText = "*Daily Joke*\n\n" +
	"Commands:\n" +
	"- /joke - Get a random joke\n" +
	"- /joke <category> - Get a joke from a category\n" +
	"- /refresh - Get another joke\n" +
	"- /save - Save the current joke to favorites\n" +
	"- /favorites - List saved jokes\n" +
	"- /remove <id> - Remove a joke from favorites\n" +
	"- /help - Show this help message"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes user text safe for legacy Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func formatJoke(j models.Joke, favorite bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Joke #%d* (%s)", j.ID, escape(j.Category))
	if favorite {
		b.WriteString(" ♥")
	}
	b.WriteString("\n\n")
	b.WriteString(escape(j.Setup))
	if j.Type == models.JokeTypeTwoPart && j.Punchline != "" {
		b.WriteString("\n\n")
		b.WriteString(escape(j.Punchline))
	}
	return b.String()
}

// formatState renders the outcome of a load.
func formatState(s viewmodel.UiState) string {
	if s.HasError() {
		return "Sorry, " + escape(s.ErrorMessage) + "\n\nTry /joke again."
	}
	if s.Joke == nil {
		return "No joke yet. Use /joke to get one!"
	}
	return formatJoke(*s.Joke, s.IsFavorite())
}

func formatFavorites(list []models.Joke) string {
	if len(list) == 0 {
		return "No favorites yet. Use /save after a joke you like."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Favorites* (%d)\n", len(list))
	for _, j := range list {
		text := j.Setup
		if j.Type == models.JokeTypeTwoPart && j.Punchline != "" {
			text += " / " + j.Punchline
		}
		fmt.Fprintf(&b, "\n#%d [%s] %s", j.ID, escape(j.Category), escape(text))
	}
	b.WriteString("\n\nRemove one with /remove <id>.")
	return b.String()
}

func formatEvent(ev *queue.FavoriteEvent) string {
	switch ev.Action {
	case queue.ActionSaved:
		if ev.Joke != nil {
			return fmt.Sprintf("Saved to favorites: #%d %s", ev.JokeID, escape(ev.Joke.Setup))
		}
		return fmt.Sprintf("Saved to favorites: #%d", ev.JokeID)
	case queue.ActionRemoved:
		return fmt.Sprintf("Removed from favorites: #%d", ev.JokeID)
	default:
		return fmt.Sprintf("Favorites changed: #%d", ev.JokeID)
	}
}

func categoryList() string {
	return strings.Join(append([]string{models.CategoryAny}, models.Categories...), ", ")
}
