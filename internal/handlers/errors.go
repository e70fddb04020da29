package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"spendly/internal/models"
	"spendly/internal/storage"

	"go.uber.org/zap"
)

// Error codes returned by the JSON API.
const (
	CodeInvalidInput        = "invalid_input"
	CodeNotFound            = "not_found"
	CodeCategoryNotFound    = "category_not_found"
	CodeCategoryHasExpenses = "category_has_expenses"
	CodeInternal            = "internal_error"
)

// inputError is a validation failure with a message safe to show the caller.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

var (
	errMissingFields = invalid("Missing required fields")
	errInvalidAmount = invalid("Invalid amount")
)

// statusFor maps an error to an HTTP status, an API code and a caller-facing message.
func statusFor(err error) (int, string, string) {
	var ie *inputError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, CodeInvalidInput, ie.msg
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidInput, "Invalid amount"
	case errors.Is(err, storage.ErrCategoryNotFound):
		return http.StatusBadRequest, CodeCategoryNotFound, "Category not found"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "Not found"
	case errors.Is(err, storage.ErrCategoryHasExpenses):
		return http.StatusConflict, CodeCategoryHasExpenses, "Category still has expenses"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// fail writes a plain-text error response for a form action.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger(r).Error("request failed", zap.Error(err))
	}
	http.Error(w, msg, status)
}

// done finishes a successful form action. HTMX requests are told where to
// navigate; plain form posts are redirected.
func done(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Location", fmt.Sprintf(`{"path":%q, "target":"#content"}`, path))
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
