package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	// ErrSourceExhausted means every candidate endpoint for a discovery
	// target failed. Discovery answers it by switching to the fallback source.
	ErrSourceExhausted = crerr.New("data source exhausted")
)
