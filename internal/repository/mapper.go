package repository

import (
	"errors"
	"strings"
	"unicode"

	"daily-joke/internal/jokeapi"
	"daily-joke/internal/models"
)

const (
	defaultCategory = "Unknown"
	defaultLang     = "en"

	wireTypeTwoPart = "twopart"
	wireTypeSingle  = "single"
)

// toResult folds the outcome of one Fetch into a terminal result.
func toResult(resp *jokeapi.Response, fetchErr error) models.Result[models.Joke] {
	if fetchErr != nil {
		var decErr *jokeapi.DecodeError
		if errors.As(fetchErr, &decErr) {
			return models.Failure[models.Joke](&UnrecognizedTypeError{Err: decErr})
		}
		return models.Failure[models.Joke](&NetworkError{Err: fetchErr})
	}

	if !resp.OK() {
		msg := resp.Status
		if resp.Body != nil && resp.Body.Message != nil && *resp.Body.Message != "" {
			msg = *resp.Body.Message
		}
		return models.Failure[models.Joke](&NetworkError{StatusCode: resp.StatusCode, Message: msg})
	}

	if resp.Body == nil {
		return models.Failure[models.Joke](&UnrecognizedTypeError{Err: errors.New("empty body")})
	}

	if resp.Body.Error {
		return models.Failure[models.Joke](apiError(resp.Body))
	}

	joke, err := mapJoke(resp.Body)
	if err != nil {
		return models.Failure[models.Joke](err)
	}
	return models.Success(joke)
}

func apiError(raw *jokeapi.RawJoke) *APIError {
	e := &APIError{
		Message: str(raw.Message, unknownErrorMessage),
		Details: raw.CausedBy,
	}
	if e.Message == "" {
		e.Message = unknownErrorMessage
	}
	if raw.Code != nil {
		e.Code = *raw.Code
	}
	return e
}

func mapJoke(raw *jokeapi.RawJoke) (models.Joke, error) {
	j := models.Joke{
		Category: normalizeText(str(raw.Category, defaultCategory)),
		Safe:     true,
		Lang:     str(raw.Lang, defaultLang),
	}
	if raw.ID != nil {
		j.ID = *raw.ID
	}
	if raw.Safe != nil {
		j.Safe = *raw.Safe
	}

	switch str(raw.Type, "") {
	case wireTypeTwoPart:
		j.Type = models.JokeTypeTwoPart
		j.Setup = normalizeText(str(raw.Setup, ""))
		j.Punchline = normalizeText(str(raw.Delivery, ""))
	case wireTypeSingle:
		j.Type = models.JokeTypeSingle
		j.Setup = normalizeText(str(raw.Joke, ""))
	default:
		return models.Joke{}, &UnrecognizedTypeError{Type: str(raw.Type, "")}
	}
	return j, nil
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// normalizeText drops characters outside the letter, number, punctuation and
// space classes, collapses whitespace runs to one space and trims the ends.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsPunct(r) {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
