package auth

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/routes"
	"github.com/go-chi/chi/v5"
)

type loginPage struct {
	*model.PageData
	Redirect string
	Error    string
}

// RegisterRoutes registers the login and logout routes. tmpl must define the
// layout with the login page.
func RegisterRoutes(r chi.Router, p *PassphraseProvider, tmpl *template.Template) {
	render := func(w http.ResponseWriter, r *http.Request, status int, msg string) {
		data := loginPage{
			PageData: model.NewPageData(r),
			Redirect: safeRedirect(r.FormValue("redirect")),
			Error:    msg,
		}
		w.Header().Set(config.HCType, config.CTypeHTML)
		w.WriteHeader(status)
		if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
			authLogger.Error().Err(err).Msg("Error rendering login page")
		}
	}

	r.Get(routes.AdminLogin, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); ok {
			http.Redirect(w, r, safeRedirect(r.FormValue("redirect")), http.StatusFound)
			return
		}
		render(w, r, http.StatusOK, "")
	})

	r.Post(routes.AdminLogin, func(w http.ResponseWriter, r *http.Request) {
		s, err := p.Login(r.Context(), r.FormValue("passphrase"))
		switch {
		case errors.Is(err, ErrTooManyAttempts):
			render(w, r, http.StatusTooManyRequests, config.ErrTooManyAttempts)
			return
		case err != nil:
			render(w, r, http.StatusUnauthorized, config.ErrWrongPassphrase)
			return
		}
		p.SetCookie(w, s)
		http.Redirect(w, r, safeRedirect(r.FormValue("redirect")), http.StatusSeeOther)
	})

	r.Post(routes.AdminLogout, func(w http.ResponseWriter, r *http.Request) {
		p.Logout(w, r)
		http.Redirect(w, r, routes.AdminLogin, http.StatusSeeOther)
	})
}

// safeRedirect keeps redirects inside the admin panel.
func safeRedirect(target string) string {
	if target == routes.Admin || strings.HasPrefix(target, routes.Admin+"/") || strings.HasPrefix(target, routes.Admin+"?") {
		return target
	}
	return routes.Admin
}
