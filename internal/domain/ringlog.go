package domain

// RecordLog is a fixed-capacity ring buffer holding the newest entries of a
// capped log. Push is O(1); once full, the oldest entry is overwritten.
// Iteration order is newest-first.
type RecordLog[T any] struct {
	buf   []T
	head  int // index of the newest entry
	count int
}

func NewRecordLog[T any](capacity int) *RecordLog[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RecordLog[T]{buf: make([]T, capacity)}
}

// FromSlice builds a log from a newest-first slice, dropping entries beyond
// the capacity.
func FromSlice[T any](capacity int, newestFirst []T) *RecordLog[T] {
	l := NewRecordLog[T](capacity)
	if len(newestFirst) > capacity {
		newestFirst = newestFirst[:capacity]
	}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		l.Push(newestFirst[i])
	}
	return l
}

func (l *RecordLog[T]) Push(v T) {
	l.head--
	if l.head < 0 {
		l.head = len(l.buf) - 1
	}
	l.buf[l.head] = v
	if l.count < len(l.buf) {
		l.count++
	}
}

func (l *RecordLog[T]) Len() int {
	return l.count
}

func (l *RecordLog[T]) Cap() int {
	return len(l.buf)
}

// Items returns a newest-first copy of the log contents.
func (l *RecordLog[T]) Items() []T {
	return l.Recent(l.count)
}

// Recent returns up to n newest entries, newest first.
func (l *RecordLog[T]) Recent(n int) []T {
	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}
