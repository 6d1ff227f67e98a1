// Package site serves the public pages. It renders from an in-memory copy
// of the content that follows the store.
package site

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"

	"github.com/debemdeboas/yasny-slukh/internal/cache"
	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/render"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/sse"
	"github.com/debemdeboas/yasny-slukh/internal/util"
	"github.com/rs/zerolog"
)

var siteLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	siteLogger = l
}

// ParsePage parses the layout together with page from fsys.
func ParsePage(fsys fs.FS, page string) (*template.Template, error) {
	return template.ParseFS(fsys,
		path.Join(config.TemplatesLocalDir, config.TemplateLayout),
		path.Join(config.TemplatesLocalDir, page),
	)
}

type Site struct {
	clients *sse.SSEClients

	index   *template.Template
	article *template.Template

	mu      sync.RWMutex
	content *model.Snapshot
	version string
}

func New(templates fs.FS, clients *sse.SSEClients) (*Site, error) {
	index, err := ParsePage(templates, config.TemplateIndex)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}
	article, err := ParsePage(templates, config.TemplateArticle)
	if err != nil {
		return nil, fmt.Errorf("parsing article template: %w", err)
	}

	s := &Site{
		clients: clients,
		index:   index,
		article: article,
	}
	s.Set(model.NewSnapshot())
	return s, nil
}

// Content returns the snapshot being served and its version. Callers must
// not modify it.
func (s *Site) Content() (*model.Snapshot, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content, s.version
}

// Set replaces the content being served. It reports whether it changed.
func (s *Site) Set(snap *model.Snapshot) bool {
	snap = snap.Clone()
	// Orders are private
	snap.Orders = []model.Order{}

	data, err := json.Marshal(snap)
	if err != nil {
		siteLogger.Error().Err(err).Msg("Error hashing content")
		return false
	}
	version := util.ContentHash(data)

	s.mu.Lock()
	changed := version != s.version
	s.content = snap
	s.version = version
	s.mu.Unlock()

	if changed {
		s.warm(snap)
	}
	return changed
}

// warm renders every article ahead of the first visit and forgets the
// renders of articles that are gone.
func (s *Site) warm(snap *model.Snapshot) {
	live := make(map[string]bool, len(snap.Articles))
	for _, a := range snap.Articles {
		hash := util.ContentHashString(a.Content)
		live[hash] = true
		render.WarmCache([]byte(a.Content), hash)
	}
	if n := cache.RetainRenderedMarkdown(live); n > 0 {
		siteLogger.Debug().Int("count", n).Msg("Dropped stale article renders")
	}
}

// Load pulls the content once.
func (s *Site) Load(ctx context.Context, store repository.ContentStore) error {
	snap, err := store.PullAll(ctx)
	if err != nil {
		return err
	}
	s.Set(snap)
	siteLogger.Info().
		Int("products", len(snap.Products)).
		Int("articles", len(snap.Articles)).
		Msg("Content loaded")
	return nil
}

// Follow serves every snapshot w announces and asks open pages to reload.
func (s *Site) Follow(ctx context.Context, w repository.Watcher) error {
	ch, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for snap := range ch {
			if s.Set(snap) {
				siteLogger.Info().Msg("Content changed, reloading pages")
				s.clients.Broadcast(sse.TopicSite, sse.Message{Data: sse.MsgReload})
			}
		}
	}()
	return nil
}
