package api

import (
	"errors"
	"net/http"

	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	"github.com/okian/zerodeadline/internal/adapters/repository"
	service "github.com/okian/zerodeadline/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrUpstream   = errors.New("upstream service failed")
)

// classify maps an error to a status code and an error code. Unknown
// errors map to 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, llm.ErrEmptyQuestion):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, calendar.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with the status classify picks for it.
func fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
