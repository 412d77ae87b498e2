package httpx

import (
	"errors"
	"net/http"
)

// ErrValidation marks request inputs the handlers could not accept.
var ErrValidation = errors.New("validation failed")

// RespondError maps service errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
