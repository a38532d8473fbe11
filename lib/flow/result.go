// Package flow is the action/reducer/effect engine: reducers are the only
// place state changes, effects are the only place work happens, and a Store
// serializes the two.
package flow

import "ehclient/lib/apperr"

// Result is the outcome of an effect, its error is always classified.
type Result[T any] struct {
	Value T
	Err   *apperr.Error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Fail classifies err, a nil err still produces a failed Result of kind
// UNKNOWN.
func Fail[T any](err error) Result[T] {
	classified := apperr.Classify(err)
	if classified == nil {
		classified = apperr.Newf(apperr.UNKNOWN, "failed without an error")
	}
	return Result[T]{Err: classified}
}

// Capture turns a (value, error) return into a Result.
func Capture[T any](value T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(value)
}

func (r Result[T]) IsOk() bool {
	return r.Err == nil
}
