// Package result provides a two-branch outcome value for network operations.
// Callers must branch on failure explicitly; nothing in this package panics
// except UnwrapOk on a failed Result.
package result

import (
	"context"
	"errors"
)

var (
	// ErrUnwrapOk is the panic value of UnwrapOk when the Result is a failure.
	ErrUnwrapOk = errors.New("called with `Err`")
	// ErrNilError replaces a nil error passed to Err so the failure branch is never empty.
	ErrNilError = errors.New("result: Err called with nil error")
)

// Result holds either a value or an error, never both.
type Result[T any] struct {
	ok  bool
	val T
	err error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{ok: true, val: v}
}

func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrNilError
	}
	return Result[T]{err: err}
}

func IsOk[T any](r Result[T]) bool { return r.ok }

func IsErr[T any](r Result[T]) bool { return !r.ok }

// UnwrapOk returns the success value. It panics with ErrUnwrapOk when r is a
// failure; guard with IsErr first.
func UnwrapOk[T any](r Result[T]) T {
	if !r.ok {
		panic(ErrUnwrapOk)
	}
	return r.val
}

// UnwrapErr returns the failure, or nil for a success.
func UnwrapErr[T any](r Result[T]) error {
	if r.ok {
		return nil
	}
	return r.err
}

// Get converts r into the usual value, error pair.
func (r Result[T]) Get() (T, error) {
	if !r.ok {
		var zero T
		return zero, r.err
	}
	return r.val, nil
}

// Map applies f to a success value. Failures pass through untouched.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return Ok(f(r.val))
}

// AndThen chains an operation that can itself fail.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	return f(r.val)
}

// MapAsync is Map for transformers that block (body reads, decoding). An
// error from f becomes the failure branch.
func MapAsync[T, U any](ctx context.Context, r Result[T], f func(context.Context, T) (U, error)) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}
	if err := ctx.Err(); err != nil {
		return Err[U](err)
	}
	v, err := f(ctx, r.val)
	if err != nil {
		return Err[U](err)
	}
	return Ok(v)
}
