// Package result defines the success/failure envelope returned by every
// public jvmget operation that can fail.
//
// A Result always carries a payload. On failure the payload is the default
// chosen by the caller, so consumers branch on OK() and never on whether the
// data is present.
package result

import "errors"

// Outcome is anything that can report success. Result implements it, and so
// does Bool for APIs that only return a plain boolean.
type Outcome interface {
	OK() bool
}

// Result is an immutable success/failure value
type Result[T any] struct {
	ok    bool
	data  T
	msg   string
	cause error
}

// Success wraps data in a successful Result
func Success[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

// Failure builds a failed Result carrying msg and the fallback payload defaultData
func Failure[T any](msg string, defaultData T) Result[T] {
	if msg == "" {
		msg = "unknown error"
	}
	return Result[T]{data: defaultData, msg: msg, cause: errors.New(msg)}
}

// Fail is Failure with the zero value of T as payload
func Fail[T any](msg string) Result[T] {
	var zero T
	return Failure(msg, zero)
}

// FromError builds a failed Result from err and keeps err as the cause, so
// callers can match it with errors.Is / errors.As.
func FromError[T any](err error, defaultData T) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{data: defaultData, msg: err.Error(), cause: err}
}

// OK reports whether the Result is a success
func (r Result[T]) OK() bool { return r.ok }

// Data returns the payload. On failure this is the caller's default.
func (r Result[T]) Data() T { return r.data }

// Err returns the failure message, or "" on success
func (r Result[T]) Err() string { return r.msg }

// Cause returns the underlying error, or nil on success
func (r Result[T]) Cause() error { return r.cause }

// Unwrap converts the Result back into Go's (value, error) pair
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.data, nil
	}
	return r.data, r.cause
}

// Bool adapts a plain boolean to Outcome
type Bool bool

// OK implements Outcome
func (b Bool) OK() bool { return bool(b) }

// IsSuccess normalizes a Result or a Bool to a single truthiness check.
// A nil Outcome is not a success.
func IsSuccess(o Outcome) bool {
	if o == nil {
		return false
	}
	return o.OK()
}
