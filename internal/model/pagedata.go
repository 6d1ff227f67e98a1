package model

import (
	"net/http"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/theme"
)

type PageData struct {
	SiteName string
	Tagline  string

	PageURL string

	Theme     string
	ThemeIcon string

	// Set on admin pages so the layout hides the public navigation.
	IsAdminPage *bool
}

func NewPageData(r *http.Request) *PageData {
	t := theme.GetThemeFromRequest(r)
	return &PageData{
		SiteName:  config.AppConfig.Site.Name,
		Tagline:   config.AppConfig.Site.Tagline,
		PageURL:   r.URL.Path,
		Theme:     t,
		ThemeIcon: theme.GetThemeIcon(t),
	}
}

func (pd *PageData) IsAdmin() bool {
	if pd.IsAdminPage == nil {
		return strings.HasPrefix(pd.PageURL, config.AdminUrlPath)
	}
	return *pd.IsAdminPage
}
