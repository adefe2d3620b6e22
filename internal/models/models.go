package models

import (
	"fmt"
	"strings"
)

type JokeType string

const (
	JokeTypeSingle  JokeType = "SINGLE"
	JokeTypeTwoPart JokeType = "TWOPART"
)

func (t JokeType) Valid() bool {
	return t == JokeTypeSingle || t == JokeTypeTwoPart
}

// Joke is immutable once built by the repository. Identity is ID.
type Joke struct {
	ID        int      `json:"id"`
	Category  string   `json:"category"`
	Setup     string   `json:"setup"`
	Punchline string   `json:"punchline"`
	Type      JokeType `json:"type"`
	Safe      bool     `json:"safe"`
	Lang      string   `json:"lang"`
}

// Text renders the joke as plain text, punchline on its own paragraph.
func (j Joke) Text() string {
	if j.Type == JokeTypeTwoPart && j.Punchline != "" {
		return j.Setup + "\n\n" + j.Punchline
	}
	return j.Setup
}

func (j Joke) String() string {
	return fmt.Sprintf("#%d [%s] %s", j.ID, j.Category, strings.ReplaceAll(j.Text(), "\n\n", " / "))
}

const CategoryAny = "Any"

// Categories accepted by the joke API besides "Any".
var Categories = []string{
	"Programming",
	"Miscellaneous",
	"Dark",
	"Pun",
	"Spooky",
	"Christmas",
}

// CanonicalCategory matches a user supplied category case-insensitively.
func CanonicalCategory(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, CategoryAny) {
		return CategoryAny, true
	}
	for _, c := range Categories {
		if strings.EqualFold(s, c) {
			return c, true
		}
	}
	return "", false
}

// ContainsID reports whether any joke in list has the given id.
func ContainsID(list []Joke, id int) bool {
	for _, j := range list {
		if j.ID == id {
			return true
		}
	}
	return false
}
