package draft

import (
	"fmt"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util"
	"github.com/rs/zerolog"
)

// ArticleDateLayout is the dd.mm.yyyy date new articles are stamped with.
const ArticleDateLayout = "02.01.2006"

const (
	DefaultServiceIcon   = "Wrench"
	DefaultAboutIcon     = "Info"
	DefaultAdvantageIcon = "Star"
)

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

type Options struct {
	// ClientIDs gives new records an id at creation instead of on save.
	ClientIDs bool
	NewID     func() string
	Now       func() time.Time
}

// Editor applies add/update/delete to any editable collection of a snapshot.
type Editor struct {
	opts Options

	products   Collection[model.Product]
	services   Collection[model.Service]
	articles   Collection[model.Article]
	about      Collection[model.AboutItem]
	advantages Collection[model.Advantage]
	partners   Collection[model.Partner]
}

func NewEditor(opts Options) *Editor {
	if opts.NewID == nil {
		opts.NewID = util.NewID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Editor{opts: opts}
	e.services.New = func() model.Service { return model.Service{Icon: DefaultServiceIcon} }
	e.articles.New = func() model.Article {
		return model.Article{Date: e.opts.Now().Format(ArticleDateLayout)}
	}
	e.about.New = func() model.AboutItem { return model.AboutItem{Icon: DefaultAboutIcon} }
	e.advantages.New = func() model.Advantage { return model.Advantage{Icon: DefaultAdvantageIcon} }
	return e
}

// CheckKind reports whether kind can be edited.
func CheckKind(kind model.Kind) error {
	if kind == model.KindOrders {
		return fmt.Errorf("%w: %s", ErrReadOnlyKind, kind)
	}
	if !kind.Editable() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Add appends a record with default values to kind and returns its key.
func (e *Editor) Add(s *model.Snapshot, kind model.Kind) (*model.Snapshot, string, error) {
	if err := CheckKind(kind); err != nil {
		return s, "", err
	}

	id := ""
	if e.opts.ClientIDs {
		id = e.opts.NewID()
	}

	out := *s
	var key string
	switch kind {
	case model.KindProducts:
		out.Products, key = e.products.Add(s.Products, id)
	case model.KindServices:
		out.Services, key = e.services.Add(s.Services, id)
	case model.KindArticles:
		out.Articles, key = e.articles.Add(s.Articles, id)
	case model.KindAbout:
		out.About, key = e.about.Add(s.About, id)
	case model.KindAdvantages:
		out.Advantages, key = e.advantages.Add(s.Advantages, id)
	case model.KindPartners:
		out.Partners, key = e.partners.Add(s.Partners, id)
	}

	draftLogger.Debug().Str("kind", kind.String()).Str("key", key).Msg("Record added")
	return &out, key, nil
}

// Update replaces one field of the record addressed by key.
func (e *Editor) Update(s *model.Snapshot, kind model.Kind, key, field, value string) (*model.Snapshot, error) {
	if err := CheckKind(kind); err != nil {
		return s, err
	}

	out := *s
	var err error
	switch kind {
	case model.KindProducts:
		out.Products, err = e.products.Update(s.Products, key, field, value)
	case model.KindServices:
		out.Services, err = e.services.Update(s.Services, key, field, value)
	case model.KindArticles:
		out.Articles, err = e.articles.Update(s.Articles, key, field, value)
	case model.KindAbout:
		out.About, err = e.about.Update(s.About, key, field, value)
	case model.KindAdvantages:
		out.Advantages, err = e.advantages.Update(s.Advantages, key, field, value)
	case model.KindPartners:
		out.Partners, err = e.partners.Update(s.Partners, key, field, value)
	}
	if err != nil {
		return s, err
	}
	return &out, nil
}

// Delete removes the record addressed by key.
func (e *Editor) Delete(s *model.Snapshot, kind model.Kind, key string) (*model.Snapshot, error) {
	if err := CheckKind(kind); err != nil {
		return s, err
	}

	out := *s
	var err error
	switch kind {
	case model.KindProducts:
		out.Products, err = e.products.Delete(s.Products, key)
	case model.KindServices:
		out.Services, err = e.services.Delete(s.Services, key)
	case model.KindArticles:
		out.Articles, err = e.articles.Delete(s.Articles, key)
	case model.KindAbout:
		out.About, err = e.about.Delete(s.About, key)
	case model.KindAdvantages:
		out.Advantages, err = e.advantages.Delete(s.Advantages, key)
	case model.KindPartners:
		out.Partners, err = e.partners.Delete(s.Partners, key)
	}
	if err != nil {
		return s, err
	}

	draftLogger.Debug().Str("kind", kind.String()).Str("key", key).Msg("Record deleted")
	return &out, nil
}

// SetHero replaces one field of the hero banner.
func (e *Editor) SetHero(s *model.Snapshot, field, value string) (*model.Snapshot, error) {
	hero, err := s.Hero.With(field, value)
	if err != nil {
		return s, err
	}
	out := *s
	out.Hero = hero
	return &out, nil
}

// Keys lists the record keys of kind in display order.
func (e *Editor) Keys(s *model.Snapshot, kind model.Kind) ([]string, error) {
	if err := CheckKind(kind); err != nil {
		return nil, err
	}
	switch kind {
	case model.KindProducts:
		return e.products.Keys(s.Products), nil
	case model.KindServices:
		return e.services.Keys(s.Services), nil
	case model.KindArticles:
		return e.articles.Keys(s.Articles), nil
	case model.KindAbout:
		return e.about.Keys(s.About), nil
	case model.KindAdvantages:
		return e.advantages.Keys(s.Advantages), nil
	default:
		return e.partners.Keys(s.Partners), nil
	}
}
