/*
Package resp writes the JSON envelope returned by every API endpoint.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"socialfeed/internal/pkg/errs"
)

// JSONResponse is the envelope returned to clients.
type JSONResponse struct {
	// Code is 0 on success, otherwise an errs code.
	Code int `json:"code"`

	// Message is the status text shown to the user.
	Message string `json:"message"`

	// Data is the optional payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the headers and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Int("http_status", httpStatus).
			Msg("Error encoding JSON response")

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess writes a 200 envelope with code 0.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError writes the envelope for err. Errors outside the errs taxonomy are
// reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	customErr := errs.From(err)
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	if customErr.Cause != nil && customErr.Status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(customErr.Cause).
			Int("code", customErr.Code).
			Msg("Request failed")
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// RespondFailure writes the envelope for err together with a data payload, for
// flows whose failure still changes client-visible state.
func RespondFailure(w http.ResponseWriter, r *http.Request, err error, data any) {
	customErr := errs.From(err)
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
		Data:    data,
	})
}
