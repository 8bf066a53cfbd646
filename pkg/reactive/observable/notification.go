package observable

import "fmt"

// Kind tags the channel a Notification was delivered on.
type Kind uint8

const (
	// KindNext is a value delivered through OnNext.
	KindNext Kind = iota
	// KindErrorResume is a per-item failure delivered through OnErrorResume.
	KindErrorResume
	// KindCompleted is the terminal signal delivered through OnCompleted.
	KindCompleted
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "Next"
	case KindErrorResume:
		return "ErrorResume"
	case KindCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Notification is one observer signal captured as a value.
type Notification[T any] struct {
	Kind   Kind
	Value  T
	Err    error
	Result Result
}

// Next returns a KindNext notification.
func Next[T any](value T) Notification[T] {
	return Notification[T]{Kind: KindNext, Value: value}
}

// ErrorResume returns a KindErrorResume notification.
func ErrorResume[T any](err error) Notification[T] {
	return Notification[T]{Kind: KindErrorResume, Err: err}
}

// Completed returns a KindCompleted notification.
func Completed[T any](result Result) Notification[T] {
	return Notification[T]{Kind: KindCompleted, Result: result}
}

// Accept replays n into observer.
func (n Notification[T]) Accept(observer Observer[T]) {
	switch n.Kind {
	case KindNext:
		observer.OnNext(n.Value)
	case KindErrorResume:
		observer.OnErrorResume(n.Err)
	case KindCompleted:
		observer.OnCompleted(n.Result)
	}
}

func (n Notification[T]) String() string {
	switch n.Kind {
	case KindNext:
		return fmt.Sprintf("Next(%v)", n.Value)
	case KindErrorResume:
		return fmt.Sprintf("ErrorResume(%v)", n.Err)
	default:
		return "Completed(" + n.Result.String() + ")"
	}
}
