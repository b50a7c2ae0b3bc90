package handler

import (
	"net/http"

	"socialfeed/internal/app/authscreen"
	"socialfeed/internal/app/feed"
	"socialfeed/internal/app/provision"
	"socialfeed/internal/app/session"
	"socialfeed/internal/configs"
	"socialfeed/internal/pkg/auth/jwt"
)

// AppDeps holds everything the handlers need.
type AppDeps struct {
	Config   *configs.AppConfig
	Sessions *session.Manager
	Auth     *authscreen.Screen
	Profile  *provision.Flow
	Feed     *feed.Screen
}

// sessionStore returns the store of the request's session. SessionMiddleware
// guarantees a payload on every routed request.
func (deps *AppDeps) sessionStore(r *http.Request) *session.Store {
	return deps.Sessions.Get(jwt.GetPayloadFromContext(r).SessionID)
}
