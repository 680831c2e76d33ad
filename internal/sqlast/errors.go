package sqlast

import "fmt"

// SyntaxError is returned when the query text cannot be turned into a
// Statement. The underlying parser error is kept for errors.Unwrap but its
// type never leaks into the signature.
type SyntaxError struct {
	Query  string
	Reason string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid query %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
