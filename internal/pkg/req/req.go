/*
Package req binds JSON and multipart request bodies, mapping every failure to an errs code.
*/
package req

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"socialfeed/internal/pkg/errs"
)

const (
	// MaxFormMemory is the in-memory budget for multipart parsing; larger parts spill to disk.
	MaxFormMemory int64 = 8 << 20

	// MaxRequestSize caps the whole request body, avatar included.
	MaxRequestSize int64 = 6 << 20
)

// BindJSON decodes exactly one JSON document from the body into dst, rejecting unknown fields.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart limits the body size and parses the multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// OptionalFile returns the uploaded file under field, or nil when the field is absent.
// SetupMultipart must have been called first. The caller closes the returned file.
func OptionalFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, *errs.CustomError) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errs.NewError(errs.ErrFormParseFailed)
	}
	return file, header, nil
}
