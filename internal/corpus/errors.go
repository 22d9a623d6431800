package corpus

import (
	"errors"
	"fmt"
)

// #region kinds
var (
	// ErrIO marks a corpus location that could not be opened or read.
	ErrIO = errors.New("corpus unreadable")
	// ErrParse marks content that is not a well-formed record list.
	ErrParse = errors.New("malformed corpus")
)

// #endregion kinds

// #region location-error

// LocationError pins a failure to a corpus location and, when known, the
// zero-based index of the offending record. Index is -1 otherwise.
type LocationError struct {
	Kind     error
	Location string
	Index    int
	Err      error
}

func (e *LocationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Location, e.Err)
	}
	return fmt.Sprintf("%v: %s record %d: %v", e.Kind, e.Location, e.Index, e.Err)
}

func (e *LocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// #endregion location-error
