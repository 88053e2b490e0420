package tasks

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

type Task struct {
	ID          int64
	Title       string
	Description *string
	Status      Status
	CreatedAt   time.Time
}

// Optional marks whether a field was supplied at all, so the zero value of T
// stays distinguishable from "leave unchanged".
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// Fields is a partial update. An empty Description clears the column.
type Fields struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[Status]
}

func (f Fields) IsEmpty() bool {
	return !f.Title.IsSet() && !f.Description.IsSet() && !f.Status.IsSet()
}

// NewTask is a validated create request.
type NewTask struct {
	Title       string
	Description *string
}
