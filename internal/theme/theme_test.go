package theme

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/debemdeboas/yasny-slukh/internal/config"
)

func withConfig(t *testing.T, defaultTheme string) {
	t.Helper()
	original := config.AppConfig
	config.AppConfig = &config.Config{Theme: config.ThemeConfig{Default: defaultTheme}}
	t.Cleanup(func() { config.AppConfig = original })
}

func TestGetThemeFromRequest(t *testing.T) {
	withConfig(t, config.LightTheme)

	testCases := []struct {
		name     string
		cookie   string
		expected string
	}{
		{"No cookie uses config default", "", config.LightTheme},
		{"Dark cookie", config.DarkTheme, config.DarkTheme},
		{"Light cookie", config.LightTheme, config.LightTheme},
		{"Garbage cookie is ignored", "solarized", config.LightTheme},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: config.CookieTheme, Value: tc.cookie})
			}
			if got := GetThemeFromRequest(req); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestGetThemeFromRequestWithoutConfig(t *testing.T) {
	original := config.AppConfig
	config.AppConfig = nil
	defer func() { config.AppConfig = original }()

	req := httptest.NewRequest("GET", "/", nil)
	if got := GetThemeFromRequest(req); got != config.DefaultTheme {
		t.Errorf("Expected %q, got %q", config.DefaultTheme, got)
	}
}

func TestToggle(t *testing.T) {
	withConfig(t, config.DarkTheme)

	req := httptest.NewRequest("POST", "/theme/toggle", nil)
	rec := httptest.NewRecorder()

	next := Toggle(rec, req)
	if next != config.LightTheme {
		t.Fatalf("Expected toggle to light, got %q", next)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Name != config.CookieTheme || cookies[0].Value != config.LightTheme {
		t.Errorf("Unexpected cookie %s=%s", cookies[0].Name, cookies[0].Value)
	}
}

func TestGetThemeIcon(t *testing.T) {
	if GetThemeIcon(config.LightTheme) != config.DarkThemeIcon {
		t.Error("Light theme should offer the dark icon")
	}
	if GetThemeIcon(config.DarkTheme) != config.LightThemeIcon {
		t.Error("Dark theme should offer the light icon")
	}
}
