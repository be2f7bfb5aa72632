package server

import (
	"errors"
	"net/http"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/portfolio"
)

// HTTPStatus maps pipeline errors to response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ai.ErrProviderUnavailable), errors.Is(err, portfolio.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrGenerationFailed), errors.Is(err, jobs.ErrExtractionMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
