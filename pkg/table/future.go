package table

// Future is the completion handle returned by [Txn.Submit]. Submit itself
// never blocks; callers that need the transaction's result call Wait, and
// callers that want to fire many transactions without waiting between them
// (spec.md §8 scenario 6) may hold onto the Future and wait on all of them
// afterward.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(value any, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Wait blocks until the transaction has been decided and returns the
// body's return value together with any error (validation, I/O, a body
// panic, or a body-returned error).
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.value, f.err
}
