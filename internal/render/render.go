// Package render turns article markdown into HTML.
package render

import (
	"sync"

	"github.com/debemdeboas/yasny-slukh/internal/cache"
	"github.com/debemdeboas/yasny-slukh/internal/util"
	"github.com/gomarkdown/markdown"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

const extensions = parser.CommonExtensions | parser.AutoHeadingIDs | parser.Footnotes |
	parser.SuperSubscript | parser.NoEmptyLineBeforeBlock

// RenderMarkdown renders article markdown. Raw HTML in the source is dropped.
func RenderMarkdown(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)
	doc := parser.NewWithExtensions(extensions).Parse(md)

	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.SkipHTML |
			md_html.LazyLoadImages | md_html.FootnoteReturnLinks,
	}
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// Mutex to protect the check-render-set operation in RenderMarkdownCached
var renderCacheMutex sync.Mutex

// RenderMarkdownCached renders md once per content hash. An empty hash is
// computed from md.
func RenderMarkdownCached(md []byte, contentHash string) []byte {
	if contentHash == "" {
		contentHash = util.ContentHash(md)
	}

	if cached, found := cache.GetRenderedMarkdown(contentHash); found {
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache hit for rendered markdown")
		return cached.HTML
	}

	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	// Another goroutine may have rendered it while we waited
	if cached, found := cache.GetRenderedMarkdown(contentHash); found {
		return cached.HTML
	}

	renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache miss for rendered markdown")
	html := RenderMarkdown(md)
	cache.SetRenderedMarkdown(contentHash, html)
	return html
}

// WarmCache pre-renders markdown content asynchronously to warm the cache
func WarmCache(md []byte, contentHash string) {
	go func() {
		RenderMarkdownCached(md, contentHash)
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache warming completed")
	}()
}
