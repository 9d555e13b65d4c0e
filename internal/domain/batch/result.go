// Package batch holds per-item outcomes of multi-document operations.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of one item. A failed item never affects its siblings.
type Result[T any] struct {
	id     string
	status ItemStatus
	value  T
	err    error
}

// NewOK creates a successful result carrying value.
func NewOK[T any](id string, value T) Result[T] {
	return Result[T]{id: id, status: StatusOK, value: value}
}

// NewError creates a failed result.
func NewError[T any](id string, err error) Result[T] {
	return Result[T]{id: id, status: StatusError, err: err}
}

// ID returns the item identifier.
func (r Result[T]) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result[T]) Status() ItemStatus { return r.status }

// Value returns the payload of a successful item (zero value on error).
func (r Result[T]) Value() T { return r.value }

// Err returns the error, if any.
func (r Result[T]) Err() error { return r.err }

// Failed counts failed items.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.status == StatusError {
			n++
		}
	}
	return n
}
