package diag

// Status classifies the outcome of a compiler stage.
type Status uint8

const (
	// Ok means the stage succeeded without diagnostics.
	Ok Status = iota
	// Recoverable means the stage produced a usable value along with
	// diagnostics for the parts it skipped.
	Recoverable
	// Fatal means the stage could not produce a usable value.
	Fatal
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case Recoverable:
		return "recoverable"
	default:
		return "fatal"
	}
}

// Result carries the value of a compiler stage with its diagnostics.
type Result[T any] struct {
	Value  T
	Status Status
	Diags  List
}

// Success returns an [Ok] result.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: Ok}
}

// Partial returns v with diags. The status is [Ok] when diags is empty and
// [Recoverable] otherwise.
func Partial[T any](v T, diags List) Result[T] {
	if len(diags) == 0 {
		return Success(v)
	}

	return Result[T]{Value: v, Status: Recoverable, Diags: diags}
}

// Failure returns a [Fatal] result.
func Failure[T any](diags List) Result[T] {
	return Result[T]{Status: Fatal, Diags: diags}
}

// Err returns the diagnostics as an error, or nil if there are none.
func (r Result[T]) Err() error { return r.Diags.Err() }

// Usable reports whether r.Value may be consumed.
func (r Result[T]) Usable() bool { return r.Status != Fatal }
