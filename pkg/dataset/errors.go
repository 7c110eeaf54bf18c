package dataset

import "fmt"

// ValidationError reports an out-of-domain argument: an unknown option value,
// a filter naming a missing column or matching nothing, or a reshape the data
// cannot support.
type ValidationError struct {
	Parameter string
	Value     any
	Msg       string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Parameter == "" {
		return "dataset: " + e.Msg
	}
	return fmt.Sprintf("dataset: invalid %s %v: %s", e.Parameter, e.Value, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }
