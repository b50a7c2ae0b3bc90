package handler

import (
	"net/http"

	"socialfeed/internal/app/authscreen"
	"socialfeed/internal/app/provision"
	"socialfeed/internal/pkg/auth/jwt"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/req"
	"socialfeed/internal/pkg/resp"
)

// HandleRegister runs the profile provisioning flow from a multipart registration form
// with the fields username, email, password and avatar.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := deps.sessionStore(r)
		if store.Current() != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadySignedIn))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, customErr := req.OptionalFile(r, "avatar")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		form := authscreen.Form{
			Mode:     authscreen.ModeRegister,
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Username: r.FormValue("username"),
		}

		if file != nil {
			defer file.Close()

			avatar, err := provision.AvatarFromUpload(file, header.Filename, header.Size)
			if err != nil {
				logx.Error(err, "register: failed to read avatar")
				resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
				return
			}
			form.Avatar = avatar
		}

		identity, err := deps.Auth.Submit(r.Context(), form, store)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": identity})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and signs the session in.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		identity, err := deps.Auth.Submit(r.Context(), authscreen.Form{
			Mode:     authscreen.ModeLogin,
			Email:    input.Email,
			Password: input.Password,
		}, deps.sessionStore(r))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": identity})
	}
}

// HandleLogout signs the session out. It succeeds for signed-out sessions too.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Feed.SignOut(r.Context(), deps.sessionStore(r))
		resp.RespondSuccess(w, r, nil)
	}
}

type ResetInput struct {
	Email string `json:"email"`
}

// HandleResetRequest sends a password reset email. The returned dialog state has its
// email cleared on success and on failure.
func HandleResetRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ResetInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		dialog, err := deps.Auth.SendReset(r.Context(), authscreen.ResetDialog{Open: true, Email: input.Email})
		if err != nil {
			resp.RespondFailure(w, r, err, dialog)
			return
		}

		resp.RespondSuccess(w, r, dialog)
	}
}

type ResetConfirmInput struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandleResetConfirm sets a new password from a reset link token.
func HandleResetConfirm(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ResetConfirmInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Auth.ConfirmReset(r.Context(), input.Token, input.NewPassword); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandlePopupStart redirects the popup window to the sign-in provider.
func HandlePopupStart(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		authURL, err := deps.Auth.StartPopup(r.Context(), payload.SessionID)
		if err != nil {
			renderPopupResult(w, r, err)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// HandlePopupCallback completes popup sign-in for the calling session and renders a
// page that reports the outcome to the opener window and closes the popup.
func HandlePopupCallback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := jwt.GetPayloadFromContext(r).SessionID
		_, err := deps.Auth.CompletePopup(r.Context(), sessionID, r.URL.Query(), deps.Sessions.Get(sessionID))
		renderPopupResult(w, r, err)
	}
}
