package catalog

import "errors"

var (
	// ErrInvalidCatalog wraps every load-time failure of a data file.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrMissingField is returned when a required record field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrTrendLength is returned when a trend curve does not have TrendLength points.
	ErrTrendLength = errors.New("wrong trend curve length")

	// ErrOutOfRange is returned when a numeric field violates its bounds.
	ErrOutOfRange = errors.New("value out of range")
)

// FieldError reports a problem with one field of one data record.
type FieldError struct {
	Record string // record id, or "#<index>" when the id itself is missing
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return "record " + e.Record + " field " + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
