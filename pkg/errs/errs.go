// Package errs holds the error taxonomy shared by the control network packages.
//
// Every sentinel is a *Error and callers match them with errors.Is. Packages add
// context by wrapping: fmt.Errorf("%w: point %q", errs.ErrMalformedMessage, id).
package errs

// Error represents a control network error
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Fatal errors. Any of these aborts the enclosing read or write.
var (
	ErrMalformedHeader    = &Error{"malformed header"}
	ErrUnsupportedVersion = &Error{"unsupported version"}
	ErrMalformedMessage   = &Error{"malformed message"}
	ErrInvalidLogValue    = &Error{"invalid log value"}
	ErrUnknownLogType     = &Error{"unknown log type"}
	ErrInvalidEnumValue   = &Error{"invalid enum value"}
	ErrStorageUnavailable = &Error{"storage unavailable"}
	ErrInvalidFieldValue  = &Error{"invalid field value"}
	ErrMissingField       = &Error{"missing field"}
	ErrInvalidState       = &Error{"invalid store state"}
	ErrLabelTooLarge      = &Error{"label does not fit before header start byte"}
	ErrNotFound           = &Error{"not found"}
)

// Non-fatal kinds. These are reported as diagnostics and processing continues.
var (
	ErrMissingReferenceIndex   = &Error{"missing reference index"}
	ErrUnsupportedFieldIgnored = &Error{"unsupported field ignored"}
)
