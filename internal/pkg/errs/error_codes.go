/*
Package errs defines the application error codes and the CustomError type shared by
the HTTP layer and the client flows.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON could not be decoded.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the client exceeded its request rate.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Form and Avatar Errors
const (
	// ErrSubmitDisabled indicates the form did not satisfy its submit requirements,
	// so no backend call was made.
	ErrSubmitDisabled = 2001

	// ErrAvatarTooLarge indicates the avatar file exceeds the size limit.
	ErrAvatarTooLarge = 2101

	// ErrAvatarTypeInvalid indicates the avatar file is not an accepted image type.
	ErrAvatarTypeInvalid = 2102
)

// 3xxx: Session Errors
const (
	// ErrUnauthorized indicates the session is not signed in.
	ErrUnauthorized = 3001

	// ErrAlreadySignedIn indicates the session already holds an identity.
	ErrAlreadySignedIn = 3002
)

// 4xxx: Identity Provider and Storage Errors. Messages carry the provider's raw text.
const (
	// ErrAccountCreation indicates the identity provider refused to create the account.
	ErrAccountCreation = 4001

	// ErrInvalidCredentials indicates the identity provider rejected the email/password pair.
	ErrInvalidCredentials = 4002

	// ErrExternalAuth indicates popup sign-in was cancelled or failed.
	ErrExternalAuth = 4003

	// ErrStorageUpload indicates the avatar upload was rejected or interrupted.
	ErrStorageUpload = 4004

	// ErrResetRequest indicates the password reset could not be requested or confirmed.
	ErrResetRequest = 4005

	// ErrProfileUpdate indicates the identity provider refused the profile write.
	ErrProfileUpdate = 4006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
