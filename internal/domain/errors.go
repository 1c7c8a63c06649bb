package domain

// ValidationError is returned when a candidate observation is rejected.
// Code is stable and machine-readable; Message is meant for the user.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrMissingPhoto    = &ValidationError{Code: "missing_photo", Message: "please add a photo"}
	ErrMissingDate     = &ValidationError{Code: "missing_date", Message: "please choose a date"}
	ErrInvalidDate     = &ValidationError{Code: "invalid_date", Message: "date must be formatted as YYYY-MM-DD"}
	ErrInvalidCategory = &ValidationError{Code: "invalid_category", Message: "category must be Galaxy, Nebula, Cluster or Other"}
)
