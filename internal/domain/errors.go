package domain

import "fmt"

// ValidationError reports malformed or out-of-range input: a negative wind
// speed, a non-finite reading, or an invalid physical parameter.
type ValidationError struct {
	Field  string
	Index  int // observation index, -1 when the error is not tied to one
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s at observation %d: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataQualityError reports input that cannot be decoded into observations
// without guessing, e.g. a null temperature or misaligned hourly columns.
type DataQualityError struct {
	Field  string
	Index  int
	Reason string
}

func (e *DataQualityError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("data quality: %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("data quality: %s: %s", e.Field, e.Reason)
}

// DomainError reports an arithmetic edge case of the transport model, such as
// a zero transport distance reaching the saturation formula.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func invalidParam(field, reason string) error {
	return &ValidationError{Field: field, Index: -1, Reason: reason}
}
