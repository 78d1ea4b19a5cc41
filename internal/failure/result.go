package failure

import "errors"

// Result is the outcome of an engine operation: either a value or a
// classified failure, never both.
type Result[T any] struct {
	value T
	err   *Error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps err as a failed result. Unclassified errors become storage
// failures.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("failure.Fail called with nil error")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		kind := KindOf(err)
		fe = &Error{Kind: kind, Message: Message(err)}
		if kind == KindStorage {
			fe.Message = "storage unavailable"
			fe.Err = err
		}
	}
	return Result[T]{err: fe}
}

// From builds a result from the usual (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return OK(v)
}

func (r Result[T]) IsOK() bool { return r.err == nil }

// Value returns the payload; it is the zero value for failed results.
func (r Result[T]) Value() T { return r.value }

// Failure returns the classified failure, or nil on success.
func (r Result[T]) Failure() *Error { return r.err }

// Unwrap converts the result back into Go's (value, error) convention.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
