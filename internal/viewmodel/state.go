package viewmodel

import (
	"slices"

	"daily-joke/internal/models"
)

// GenericErrorMessage is shown when a failed load carries no message of its own.
const GenericErrorMessage = "An unexpected error occurred"

// UiState is an immutable snapshot of what the presentation layer renders.
// ErrorMessage is empty when there is no error.
type UiState struct {
	Joke          *models.Joke
	IsLoading     bool
	IsRefreshing  bool
	ErrorMessage  string
	FavoriteJokes []models.Joke
}

func (s UiState) HasError() bool {
	return s.ErrorMessage != ""
}

// IsFavorite reports whether the current joke is in the favorites snapshot.
func (s UiState) IsFavorite() bool {
	return s.Joke != nil && models.ContainsID(s.FavoriteJokes, s.Joke.ID)
}

func (s UiState) clone() UiState {
	out := s
	if s.Joke != nil {
		j := *s.Joke
		out.Joke = &j
	}
	out.FavoriteJokes = slices.Clone(s.FavoriteJokes)
	return out
}

// fold applies one emission of a joke fetch to s and returns the new state.
func fold(s UiState, res models.Result[models.Joke]) UiState {
	next := s.clone()
	switch res.Status {
	case models.StatusLoading:
		next.IsLoading = true
		next.ErrorMessage = ""
	case models.StatusSuccess:
		j := res.Data
		next.Joke = &j
		next.IsLoading = false
		next.IsRefreshing = false
		next.ErrorMessage = ""
	case models.StatusError:
		next.IsLoading = false
		next.IsRefreshing = false
		next.ErrorMessage = GenericErrorMessage
		if res.Err != nil && res.Err.Error() != "" {
			next.ErrorMessage = res.Err.Error()
		}
	}
	return next
}

// Event is one of the inputs the controller accepts.
type Event interface {
	isEvent()
}

type (
	LoadJoke           struct{}
	RefreshJoke        struct{}
	LoadJokeByCategory struct{ Category string }
	ClearError         struct{}
	SaveFavoriteJoke   struct{}
	// RemoveFromFavorites removes Joke by its ID.
	RemoveFromFavorites struct{ Joke models.Joke }
)

func (LoadJoke) isEvent()            {}
func (RefreshJoke) isEvent()         {}
func (LoadJokeByCategory) isEvent()  {}
func (ClearError) isEvent()          {}
func (SaveFavoriteJoke) isEvent()    {}
func (RemoveFromFavorites) isEvent() {}
