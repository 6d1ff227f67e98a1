// Package theme resolves the light/dark page theme from requests.
package theme

import (
	"net/http"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/config"
)

func GetThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieTheme); err == nil && IsValid(cookie.Value) {
		return cookie.Value
	}
	if config.AppConfig != nil && IsValid(config.AppConfig.Theme.Default) {
		return config.AppConfig.Theme.Default
	}
	return config.DefaultTheme
}

func IsValid(theme string) bool {
	return theme == config.LightTheme || theme == config.DarkTheme
}

// Opposite returns the theme a toggle switches to.
func Opposite(theme string) string {
	if theme == config.LightTheme {
		return config.DarkTheme
	}
	return config.LightTheme
}

// Toggle flips the request's theme and stores the result in a cookie.
func Toggle(w http.ResponseWriter, r *http.Request) string {
	next := Opposite(GetThemeFromRequest(r))
	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieTheme,
		Value:    next,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		SameSite: http.SameSiteLaxMode,
	})
	return next
}

func GetThemeIcon(theme string) string {
	if theme == config.LightTheme {
		return config.DarkThemeIcon
	}
	return config.LightThemeIcon
}
