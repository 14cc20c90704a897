package amazon

import "fmt"

// ValidationError marks a single item that failed required-field checks or
// extraction. It is isolated to that item; batch processing continues.
type ValidationError struct {
	ASIN    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError carrying the originating ASIN,
// or "unknown" when the item never had one.
func NewValidationError(asin, format string, args ...interface{}) *ValidationError {
	if asin == "" {
		asin = "unknown"
	}
	return &ValidationError{ASIN: asin, Message: fmt.Sprintf(format, args...)}
}

// BatchError identifies one failed item inside a batch, by position and ASIN.
type BatchError struct {
	Index int
	ASIN  string
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.ASIN, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}
