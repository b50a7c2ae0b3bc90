package errs

import "net/http"

// errorMap holds the default message and HTTP status for every code.
// A zero Status is reported as 200, the envelope's code carrying the failure.
var errorMap = map[int]CustomError{
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrSubmitDisabled:    {Code: ErrSubmitDisabled, Message: "Please complete every required field.", Status: http.StatusBadRequest},
	ErrAvatarTooLarge:    {Code: ErrAvatarTooLarge, Message: "Avatar image is too large.", Status: http.StatusBadRequest},
	ErrAvatarTypeInvalid: {Code: ErrAvatarTypeInvalid, Message: "Avatar must be a JPEG, PNG, WebP or GIF image.", Status: http.StatusBadRequest},

	ErrUnauthorized:    {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrAlreadySignedIn: {Code: ErrAlreadySignedIn, Message: "You are already signed in.", Status: http.StatusConflict},

	ErrAccountCreation:    {Code: ErrAccountCreation, Message: "Account could not be created."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusUnauthorized},
	ErrExternalAuth:       {Code: ErrExternalAuth, Message: "Sign-in was cancelled or failed."},
	ErrStorageUpload:      {Code: ErrStorageUpload, Message: "Avatar upload failed.", Status: http.StatusBadGateway},
	ErrResetRequest:       {Code: ErrResetRequest, Message: "Password reset could not be requested."},
	ErrProfileUpdate:      {Code: ErrProfileUpdate, Message: "Profile could not be updated."},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
