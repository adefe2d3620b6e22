package models

type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is one step of an asynchronous fetch: Loading, then Success or Error.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func Loading[T any]() Result[T] {
	return Result[T]{Status: StatusLoading}
}

func Success[T any](v T) Result[T] {
	return Result[T]{Status: StatusSuccess, Data: v}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{Status: StatusError, Err: err}
}

// Terminal reports whether no further results follow this one.
func (r Result[T]) Terminal() bool {
	return r.Status != StatusLoading
}
