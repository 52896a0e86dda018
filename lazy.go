package gitver

// lazy holds a value that is computed on first access and kept until
// reset is called. It is not safe for concurrent use.
type lazy[T any] struct {
	compute func() (T, error)
	done    bool
	value   T
	err     error
}

func newLazy[T any](compute func() (T, error)) *lazy[T] {
	return &lazy[T]{compute: compute}
}

// fixed returns a lazy that is already evaluated to v.
func fixed[T any](v T) *lazy[T] {
	return &lazy[T]{done: true, value: v}
}

func (l *lazy[T]) get() (T, error) {
	if !l.done {
		l.value, l.err = l.compute()
		l.done = true
	}
	return l.value, l.err
}

// reset discards the cached value; the next get recomputes it.
func (l *lazy[T]) reset() {
	var zero T
	l.done = false
	l.value = zero
	l.err = nil
}
