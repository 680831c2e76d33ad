package analyzer

import (
	"errors"
	"fmt"

	"github.com/Rana718/querygraft/internal/descriptor"
)

// ErrUnmatchedBinding means the where clause bound a variable that the
// placeholder scan did not see. It indicates a defect, not bad input.
var ErrUnmatchedBinding = errors.New("bound variable missing from placeholder scan")

// UnsupportedConstructError describes a construct that was left out of the
// descriptor. It is never returned from Analyze; it ends up as a notice.
type UnsupportedConstructError struct {
	Clause    string // "where" or "select"
	Construct string
	Reason    string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: skipped %s: %s", e.Clause, e.Construct, e.Reason)
}

// LookupMissError records a column whose type is unknown to the metadata
// source; the type falls back to string.
type LookupMissError struct {
	Table  string
	Column string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("no type metadata for %s.%s, defaulting to %s", e.Table, e.Column, descriptor.TypeString)
}

func toNotices(errs []error) []descriptor.Notice {
	if len(errs) == 0 {
		return nil
	}
	notices := make([]descriptor.Notice, 0, len(errs))
	for _, err := range errs {
		kind := "warning"
		var unsupported *UnsupportedConstructError
		var miss *LookupMissError
		switch {
		case errors.As(err, &unsupported):
			kind = "unsupported"
		case errors.As(err, &miss):
			kind = "lookup-miss"
		}
		notices = append(notices, descriptor.Notice{Kind: kind, Message: err.Error()})
	}
	return notices
}
