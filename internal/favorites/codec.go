package favorites

import (
	"encoding/json"
	"errors"
	"fmt"

	"daily-joke/internal/models"
)

var errCorrupt = errors.New("corrupt favorites payload")

// storedJoke is the persisted record. Every field is required.
type storedJoke struct {
	ID        *int    `json:"id"`
	Category  *string `json:"category"`
	Setup     *string `json:"setup"`
	Punchline *string `json:"punchline"`
	Type      *string `json:"type"`
	Safe      *bool   `json:"safe"`
	Lang      *string `json:"lang"`
}

func encode(list []models.Joke) ([]byte, error) {
	if list == nil {
		list = []models.Joke{}
	}
	return json.Marshal(list)
}

// decode parses a stored payload. Empty input is an empty list; anything that
// does not fully parse is errCorrupt.
func decode(data []byte) ([]models.Joke, error) {
	if len(data) == 0 {
		return []models.Joke{}, nil
	}

	var raw []storedJoke
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}

	out := make([]models.Joke, 0, len(raw))
	for i, r := range raw {
		if r.ID == nil || r.Category == nil || r.Setup == nil || r.Punchline == nil ||
			r.Type == nil || r.Safe == nil || r.Lang == nil {
			return nil, fmt.Errorf("%w: element %d has missing fields", errCorrupt, i)
		}
		t := models.JokeType(*r.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: element %d has type %q", errCorrupt, i, *r.Type)
		}
		out = append(out, models.Joke{
			ID:        *r.ID,
			Category:  *r.Category,
			Setup:     *r.Setup,
			Punchline: *r.Punchline,
			Type:      t,
			Safe:      *r.Safe,
			Lang:      *r.Lang,
		})
	}
	return out, nil
}
