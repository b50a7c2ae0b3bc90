package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"socialfeed/internal/app/authscreen"
	"socialfeed/internal/app/gate"
	"socialfeed/internal/app/user"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"auth.html":  parsePage("auth.html"),
	"feed.html":  parsePage("feed.html"),
	"reset.html": parsePage("reset.html"),
	"popup.html": template.Must(template.ParseFS(templateFS, "templates/popup.html")),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// renderPage executes a page into a buffer first so a template error never leaves a
// half-written response.
func renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, name, data); err != nil {
		logx.Error(err, "Failed to render page", "page", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type authPageData struct {
	Title             string
	Mode              string
	Toggle            string
	PopupEnabled      bool
	MinPasswordLength int
}

type feedPageData struct {
	Title string
	User  *user.Identity
}

// HandleIndexPage renders the feed when the session gate is Authenticated and the auth
// screen otherwise. The "mode" query parameter selects login or registration.
func HandleIndexPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := deps.sessionStore(r)
		g := gate.Mount(store, nil)
		defer g.Unmount()

		if g.View().State == gate.Authenticated {
			if page, ok := deps.Feed.Page(store); ok {
				renderPage(w, http.StatusOK, "feed.html", feedPageData{Title: "Feed", User: page.User})
				return
			}
		}

		mode := authscreen.ParseMode(r.URL.Query().Get("mode"))
		title := "Sign in"
		if mode == authscreen.ModeRegister {
			title = "Create account"
		}

		renderPage(w, http.StatusOK, "auth.html", authPageData{
			Title:             title,
			Mode:              mode.String(),
			Toggle:            mode.Toggle().String(),
			PopupEnabled:      deps.Auth.PopupEnabled(),
			MinPasswordLength: authscreen.MinPasswordLength,
		})
	}
}

type resetPageData struct {
	Title             string
	Token             string
	MinPasswordLength int
}

// HandleResetPage renders the form behind a password reset link.
func HandleResetPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		renderPage(w, http.StatusOK, "reset.html", resetPageData{
			Title:             "Reset password",
			Token:             token,
			MinPasswordLength: authscreen.MinPasswordLength,
		})
	}
}

type popupPageData struct {
	OK      bool
	Message string
}

// renderPopupResult renders the page that reports a popup sign-in outcome to the opener.
func renderPopupResult(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		renderPage(w, http.StatusOK, "popup.html", popupPageData{OK: true})
		return
	}

	customErr := errs.From(err)
	renderPage(w, http.StatusOK, "popup.html", popupPageData{Message: customErr.Message})
}
