package fragment

import "errors"

var (
	// ErrNotFound signals the fragment does not exist for the requesting
	// owner. Fragments owned by someone else report the same error.
	ErrNotFound = errors.New("fragment not found")
	// ErrUnsupportedType indicates the declared essence is outside the
	// supported set.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrMalformedContentType indicates the Content-Type header could not
	// be parsed at all.
	ErrMalformedContentType = errors.New("malformed content type")
	// ErrValidation indicates the payload does not match its declared type.
	ErrValidation = errors.New("payload does not match declared type")
	// ErrTypeImmutable is returned when an update declares a different type
	// than the one the fragment was created with.
	ErrTypeImmutable = errors.New("fragment type cannot change")
	// ErrUnsupportedConversion indicates the origin/target pair is not in
	// the conversion matrix.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrConversionFailed indicates the pair is allowed but the payload
	// cannot structurally support the conversion.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrEmptyPayload is returned for zero-length write bodies.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrTooLarge signals that a payload exceeds the configured ceiling.
	ErrTooLarge = errors.New("payload too large")
)
