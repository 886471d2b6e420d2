package join

// queue is an unbounded FIFO of notifications.
//
// It carries no lock of its own: every access happens inside the
// coordinator's gate.
type queue[T any] struct {
	items []Notification[T]
}

func (q *queue[T]) push(n Notification[T]) {
	q.items = append(q.items, n)
}

// head returns the oldest notification without removing it.
func (q *queue[T]) head() (Notification[T], bool) {
	if len(q.items) == 0 {
		return Notification[T]{}, false
	}
	return q.items[0], true
}

// pop removes and returns the oldest notification. Popping an empty queue is
// an engine defect: match checks every head before it consumes anything.
func (q *queue[T]) pop() Notification[T] {
	if len(q.items) == 0 {
		panic("join: dequeue from empty source queue")
	}

	n := q.items[0]

	// Zero the slot so the backing array does not pin the value.
	q.items[0] = Notification[T]{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return n
}

func (q *queue[T]) len() int {
	return len(q.items)
}

func (q *queue[T]) clear() {
	clear(q.items)
	q.items = q.items[:0]
}
