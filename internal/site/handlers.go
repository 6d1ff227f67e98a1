package site

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/render"
	"github.com/debemdeboas/yasny-slukh/internal/routes"
	"github.com/debemdeboas/yasny-slukh/internal/sse"
	"github.com/debemdeboas/yasny-slukh/internal/theme"
	"github.com/debemdeboas/yasny-slukh/internal/util"
	"github.com/go-chi/chi/v5"
)

// Routes registers the public pages on r.
func (s *Site) Routes(r chi.Router) {
	r.Get(routes.RobotsPath, serveRobots)
	r.Get(routes.ThemeOppositeIcon, serveThemeOppositeIcon)
	r.Post(routes.ThemeToggle, serveThemeToggle)
	r.Get(routes.SSEPath, func(w http.ResponseWriter, r *http.Request) {
		s.clients.Serve(w, r, sse.TopicSite)
	})
	r.Get(routes.Article, s.serveArticle)
	r.Get(routes.RootPath, s.serveIndex)
}

type indexPage struct {
	*model.PageData
	Phone        string
	Hero         model.Hero
	Products     []model.Product
	Services     []model.Service
	Articles     []model.Article
	About        []model.AboutItem
	Advantages   []model.Advantage
	Partners     []model.Partner
	ArticlesPath string
}

type articlePage struct {
	*model.PageData
	Article model.Article
	Content template.HTML
}

// notModified sets the ETag of a page built from version and reports
// whether the client already has it.
func notModified(w http.ResponseWriter, r *http.Request, version, pageTheme string) bool {
	etag := `"` + util.ContentHashString(version+pageTheme) + `"`
	w.Header().Set(config.HETag, etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (s *Site) serveIndex(w http.ResponseWriter, r *http.Request) {
	content, version := s.Content()

	data := indexPage{
		PageData:     model.NewPageData(r),
		Phone:        config.AppConfig.Site.Phone,
		Hero:         content.Hero,
		Products:     content.Products,
		Services:     content.Services,
		Articles:     content.Articles,
		About:        content.About,
		Advantages:   content.Advantages,
		Partners:     content.Partners,
		ArticlesPath: config.ArticlesUrlPath,
	}

	if notModified(w, r, version, data.Theme) {
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := s.index.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		siteLogger.Error().Err(err).Msg("Error rendering index")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

func (s *Site) serveArticle(w http.ResponseWriter, r *http.Request) {
	content, version := s.Content()

	article, ok := content.Article(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data := articlePage{
		PageData: model.NewPageData(r),
		Article:  article,
	}
	if notModified(w, r, version, data.Theme) {
		return
	}

	md := []byte(article.Content)
	data.Content = template.HTML(render.RenderMarkdownCached(md, util.ContentHash(md)))

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := s.article.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		siteLogger.Error().Err(err).Str("article", article.ID).Msg("Error rendering article")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
	}
}

func serveRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User-agent: *\nDisallow: /admin\nDisallow: /api/\n"))
}

func serveThemeOppositeIcon(w http.ResponseWriter, r *http.Request) {
	currTheme := r.URL.Query().Get("theme")
	if currTheme == "" {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(theme.GetThemeIcon(currTheme)))
}

// serveThemeToggle answers scripted requests with the new icon and sends
// plain form posts back where they came from.
func serveThemeToggle(w http.ResponseWriter, r *http.Request) {
	if config.AppConfig != nil && !config.AppConfig.Theme.AllowSwitching {
		http.Error(w, "theme switching disabled", http.StatusForbidden)
		return
	}

	newTheme := theme.Toggle(w, r)

	if r.Header.Get("X-Requested-With") != "" {
		w.Header().Set(config.HCType, config.CTypeHTML)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(theme.GetThemeIcon(newTheme)))
		return
	}

	back := routes.RootPath
	if u, err := url.Parse(r.Referer()); err == nil && strings.HasPrefix(u.Path, "/") && !strings.HasPrefix(u.Path, "//") {
		back = u.Path
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
