package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrInvalidTier         = errors.New("invalid tier")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrProviderFailure     = errors.New("provider failure")
)
