package handler

import (
	"net/http"

	"socialfeed/internal/app/gate"
	"socialfeed/internal/app/provision"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/req"
	"socialfeed/internal/pkg/resp"
)

// HandleGetUserProfile returns the session gate's current view.
func HandleGetUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := gate.Mount(deps.sessionStore(r), nil)
		defer g.Unmount()

		resp.RespondSuccess(w, r, g.View())
	}
}

// HandleUpdateUserProfile changes the display name and, optionally, the avatar of the
// signed-in user from a multipart form with the fields displayName and avatar.
func HandleUpdateUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := deps.sessionStore(r)
		if store.Current() == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
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

		var avatar *provision.Avatar
		if file != nil {
			defer file.Close()

			a, err := provision.AvatarFromUpload(file, header.Filename, header.Size)
			if err != nil {
				logx.Error(err, "update_profile: failed to read avatar")
				resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
				return
			}
			avatar = a
		}

		identity, err := deps.Profile.UpdateProfile(r.Context(), store, r.FormValue("displayName"), avatar)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": identity})
	}
}
