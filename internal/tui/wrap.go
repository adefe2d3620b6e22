package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// wrapText breaks text into lines no wider than width cells. Words are kept
// whole unless a single word is wider than the line. Existing newlines start
// a new paragraph.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, width)...)
	}
	return lines
}

func wrapParagraph(paragraph string, width int) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		if wordWidth > width {
			if lineWidth > 0 {
				flush()
			}
			for _, chunk := range splitWide(word, width) {
				line.WriteString(chunk)
				lineWidth = runewidth.StringWidth(chunk)
				if lineWidth == width {
					flush()
				}
			}
			continue
		}
		sep := 0
		if lineWidth > 0 {
			sep = 1
		}
		if lineWidth+sep+wordWidth > width {
			flush()
			sep = 0
		}
		if sep == 1 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
		lineWidth += sep + wordWidth
	}
	if lineWidth > 0 {
		flush()
	}
	return lines
}

// splitWide hard-breaks a word into chunks of at most width cells.
func splitWide(word string, width int) []string {
	var chunks []string
	var cur strings.Builder
	curWidth := 0
	for _, r := range word {
		w := runewidth.RuneWidth(r)
		if curWidth+w > width && curWidth > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteRune(r)
		curWidth += w
	}
	if curWidth > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// truncate shortens s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, ellipsis)
}
