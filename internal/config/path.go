package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	ArticlesUrlPath = "/articles/"
	AdminUrlPath    = "/admin/"
	DataAPIPath     = "/api/data"

	TemplatesLocalDir = "templates"

	TemplateLayout  = "layout.html"
	TemplateIndex   = "index.html"
	TemplateArticle = "article.html"
	TemplateAdmin   = "admin.html"
	TemplateLogin   = "login.html"
)
