package domain

import "errors"

var (
	ErrNoFiles             = errors.New("no files uploaded")
	ErrTooManyFiles        = errors.New("too many files")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrBatchRejected       = errors.New("batch rejected by validation")
	ErrBatchCanceled       = errors.New("batch canceled")

	ErrAuthFailed          = errors.New("OCR provider authentication failed")
	ErrRateLimited         = errors.New("OCR provider rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("OCR provider unavailable")
	ErrMalformedResponse   = errors.New("OCR provider returned a malformed response")
	ErrEmptyExtraction     = errors.New("no text could be extracted from the response")
)
