// Package session holds the admin's working draft. A session pulls the
// content from the store, applies edits locally and writes them back only on
// an explicit save, unless mirroring is on.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/draft"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/transfer"
	"github.com/rs/zerolog"
)

var sessionLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sessionLogger = l
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient message for the admin.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier delivers notices to the admin owning a session.
type Notifier interface {
	Notify(sessionID string, n Notice)
}

type NotifierFunc func(sessionID string, n Notice)

func (f NotifierFunc) Notify(sessionID string, n Notice) {
	f(sessionID, n)
}

type discard struct{}

func (discard) Notify(string, Notice) {}

type Options struct {
	Store  repository.ContentStore
	Editor *draft.Editor
	// Mirror pushes the draft to the store after every edit.
	Mirror   bool
	Notifier Notifier
	Now      func() time.Time
}

type Session struct {
	ID string

	store    repository.ContentStore
	editor   *draft.Editor
	mirror   bool
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	draft    *model.Snapshot
	loaded   bool
	lastSeen time.Time
	stop     context.CancelFunc
}

func New(id string, opts Options) *Session {
	s := &Session{
		ID:       id,
		store:    opts.Store,
		editor:   opts.Editor,
		mirror:   opts.Mirror,
		notifier: opts.Notifier,
		now:      opts.Now,
		draft:    model.NewSnapshot(),
	}
	if s.editor == nil {
		s.editor = draft.NewEditor(draft.Options{})
	}
	if s.notifier == nil {
		s.notifier = discard{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.lastSeen = s.now()
	return s
}

func (s *Session) notify(level Level, format string, args ...any) {
	s.notifier.Notify(s.ID, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (s *Session) fail(action string, err error) error {
	sessionLogger.Warn().Err(err).Str("session", s.ID).Str("action", action).Msg("Admin action failed")
	s.notify(LevelError, "%s failed: %v", action, err)
	return fmt.Errorf("%s: %w", action, err)
}

// Draft returns a copy of the working draft.
func (s *Session) Draft() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Loaded reports whether a pull has ever succeeded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Session) replace(next *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = next
	s.loaded = true
}

// Load replaces the draft with the stored content. On failure the draft is
// kept as it was.
func (s *Session) Load(ctx context.Context) error {
	next, err := s.store.PullAll(ctx)
	if err != nil {
		return s.fail("Loading content", err)
	}
	s.replace(next)
	return nil
}

// Save pushes the draft and then reloads it from the store. Edits made while
// the push is in flight are overwritten by the reload.
func (s *Session) Save(ctx context.Context) error {
	snap := s.Draft()
	if err := s.store.PushAll(ctx, snap); err != nil {
		return s.fail("Saving", err)
	}

	next, err := s.store.PullAll(ctx)
	if err != nil {
		return s.fail("Reloading after save", err)
	}
	s.replace(next)
	s.notify(LevelSuccess, "Changes saved")
	return nil
}

// edit applies fn to the draft and mirrors the result when configured.
func (s *Session) edit(ctx context.Context, fn func(*model.Snapshot) (*model.Snapshot, error)) error {
	s.mu.Lock()
	next, err := fn(s.draft)
	if err != nil {
		s.mu.Unlock()
		return s.fail("Editing", err)
	}
	s.draft = next
	s.mu.Unlock()

	if !s.mirror {
		return nil
	}
	if err := s.store.PushAll(ctx, next.Clone()); err != nil {
		return s.fail("Saving", err)
	}
	return nil
}

// Add appends a blank record of kind and returns its key.
func (s *Session) Add(ctx context.Context, kind model.Kind) (string, error) {
	var key string
	err := s.edit(ctx, func(d *model.Snapshot) (*model.Snapshot, error) {
		next, k, err := s.editor.Add(d, kind)
		key = k
		return next, err
	})
	return key, err
}

func (s *Session) Update(ctx context.Context, kind model.Kind, key, field, value string) error {
	return s.edit(ctx, func(d *model.Snapshot) (*model.Snapshot, error) {
		return s.editor.Update(d, kind, key, field, value)
	})
}

func (s *Session) Delete(ctx context.Context, kind model.Kind, key string) error {
	return s.edit(ctx, func(d *model.Snapshot) (*model.Snapshot, error) {
		return s.editor.Delete(d, kind, key)
	})
}

func (s *Session) SetHero(ctx context.Context, field, value string) error {
	return s.edit(ctx, func(d *model.Snapshot) (*model.Snapshot, error) {
		return s.editor.SetHero(d, field, value)
	})
}

// Import replaces the draft with the document read from r. It never touches
// the store.
func (s *Session) Import(r io.Reader) error {
	next, err := transfer.Import(r)
	if err != nil {
		return s.fail("Import", err)
	}
	s.replace(next)
	s.notify(LevelInfo, "Data imported, save to keep it")
	return nil
}

func (s *Session) Export() (transfer.Document, error) {
	doc, err := transfer.Export(s.Draft(), s.now())
	if err != nil {
		return doc, s.fail("Export", err)
	}
	return doc, nil
}

// UpdateOrderStatus changes one order in the store and then reloads the
// order list. The rest of the draft is left alone.
func (s *Session) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return s.fail("Updating order status", err)
	}
	if err := s.store.UpdateOrderStatus(ctx, id, status); err != nil {
		return s.fail("Updating order status", err)
	}

	fresh, err := s.store.PullAll(ctx)
	if err != nil {
		return s.fail("Reloading orders", err)
	}

	s.mu.Lock()
	s.draft = s.draft.WithOrders(fresh.Orders)
	s.mu.Unlock()
	s.notify(LevelSuccess, "Order status updated")
	return nil
}

// Follow replaces the draft with every snapshot w announces until ctx ends.
// Unsaved edits are lost when a change arrives.
func (s *Session) Follow(ctx context.Context, w repository.Watcher) error {
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching content: %w", err)
	}
	go func() {
		for next := range ch {
			s.replace(next)
			s.notify(LevelInfo, "Content changed in storage, draft reloaded")
		}
	}()
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) setStop(stop context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = stop
}

// Close stops following the store.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// IsInputError reports whether err comes from the request rather than the
// store.
func IsInputError(err error) bool {
	var fe *transfer.FormatError
	return errors.Is(err, draft.ErrUnknownKind) ||
		errors.Is(err, draft.ErrUnknownField) ||
		errors.Is(err, draft.ErrRecordNotFound) ||
		errors.Is(err, draft.ErrReadOnlyKind) ||
		errors.Is(err, model.ErrInvalidStatus) ||
		errors.As(err, &fe)
}
