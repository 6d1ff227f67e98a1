// Package routes defines HTTP route constants for the application.
package routes

import "github.com/debemdeboas/yasny-slukh/internal/config"

// Public site
const (
	RobotsPath        = "/robots.txt"
	ThemeOppositeIcon = "/theme/opposite-icon"
	ThemeToggle       = "/theme/toggle"
	SSEPath           = "/sse"
	RootPath          = "/"
	Article           = config.ArticlesUrlPath + "{id}"
)

// Admin panel. Record routes take the collection kind and the record key.
const (
	Admin          = "/admin"
	AdminLogin     = "/admin/login"
	AdminLogout    = "/admin/logout"
	AdminEvents    = "/admin/events"
	AdminReload    = "/admin/reload"
	AdminSave      = "/admin/save"
	AdminImport    = "/admin/import"
	AdminExport    = "/admin/export"
	AdminHero      = "/admin/hero"
	AdminAdd       = "/admin/{kind}/add"
	AdminUpdate    = "/admin/{kind}/{key}/update"
	AdminDelete    = "/admin/{kind}/{key}/delete"
	AdminOrderStat = "/admin/orders/{id}/status"
)

// Data endpoint
const (
	APIData = config.DataAPIPath
)
