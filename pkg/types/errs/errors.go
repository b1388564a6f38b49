package errs

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrObjectNotFound    = errors.New("object not found")
)
