package api

import "context"

// Future is the pending result of an asynchronous bridge operation.
//
// Every network operation in this package has an Async form returning a
// Future and a blocking form that is just Await on it. Await blocks the
// calling goroutine, so never call it (or a blocking form) from code that must
// not block, such as a bubbletea Update or View; turn the future into a
// command instead.
type Future[T any] struct {
	op   string
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine and returns its future result
func Go[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{op: op, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a future that has already completed
func Resolved[T any](op string, val T, err error) *Future[T] {
	f := &Future[T]{op: op, done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// Op names the operation behind the future
func (f *Future[T]) Op() string {
	return f.op
}

// Done is closed once the operation has completed
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome with the original error. It blocks until Done.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await blocks until f completes. A failure is returned as *AsyncError
// wrapping the original cause.
func Await[T any](f *Future[T]) (T, error) {
	val, err := f.Result()
	if err != nil {
		return val, &AsyncError{Op: f.op, Err: err}
	}
	return val, nil
}
