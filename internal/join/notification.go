package join

import "fmt"

// Kind discriminates the three notification variants.
type Kind int

const (
	// KindNext carries a value.
	KindNext Kind = iota + 1
	// KindError carries a terminal error.
	KindError
	// KindCompleted marks normal termination.
	KindCompleted
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Notification is a materialised push event.
type Notification[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// Next wraps a value.
func Next[T any](v T) Notification[T] {
	return Notification[T]{Kind: KindNext, Value: v}
}

// ErrorNotification wraps a terminal error.
func ErrorNotification[T any](err error) Notification[T] {
	return Notification[T]{Kind: KindError, Err: err}
}

// Completed marks the end of a source.
func Completed[T any]() Notification[T] {
	return Notification[T]{Kind: KindCompleted}
}

func (n Notification[T]) String() string {
	switch n.Kind {
	case KindNext:
		return fmt.Sprintf("next(%v)", n.Value)
	case KindError:
		return fmt.Sprintf("error(%v)", n.Err)
	default:
		return n.Kind.String()
	}
}
