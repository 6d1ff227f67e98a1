package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util"
)

// offer hands s to ch, replacing a snapshot the reader has not taken yet.
// ch must have a buffer of one and a single sender.
func offer(ch chan *model.Snapshot, s *model.Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// broadcaster fans snapshots out to every active Watch call.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan *model.Snapshot]struct{}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan *model.Snapshot {
	ch := make(chan *model.Snapshot, 1)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[chan *model.Snapshot]struct{})
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) publish(s *model.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		offer(ch, s.Clone())
	}
}

func snapshotHash(s *model.Snapshot) string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return util.ContentHash(data)
}

// PollWatcher turns a store without change notification into a Watcher by
// pulling on an interval and comparing content hashes.
type PollWatcher struct {
	Pull func(ctx context.Context) (*model.Snapshot, error)
	// Version is an optional cheap check run before each pull. The pull is
	// skipped while the version stays the same.
	Version  func(ctx context.Context) (string, error)
	Interval time.Duration
	Name     string
}

func (w *PollWatcher) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	// Establish the baseline before returning so that changes made after
	// Watch returns are always reported.
	var lastVersion, lastHash string
	if w.Version != nil {
		v, err := w.Version(ctx)
		if err != nil {
			return nil, transportErr(opPull, err)
		}
		lastVersion = v
	}
	s, err := w.Pull(ctx)
	if err != nil {
		return nil, transportErr(opPull, err)
	}
	lastHash = snapshotHash(s)

	ch := make(chan *model.Snapshot, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			version := lastVersion
			if w.Version != nil {
				v, err := w.Version(ctx)
				if err != nil {
					repoLogger.Error().Err(err).Str("store", w.Name).Msg("Error checking content version")
					continue
				}
				if v == lastVersion {
					repoLogger.Trace().Str("store", w.Name).Msg("No content modified, skipping reload")
					continue
				}
				version = v
			}

			s, err := w.Pull(ctx)
			if err != nil {
				if ctx.Err() == nil {
					repoLogger.Error().Err(err).Str("store", w.Name).Msg("Error reloading content")
				}
				continue
			}
			lastVersion = version

			h := snapshotHash(s)
			if h == lastHash {
				continue
			}
			lastHash = h

			repoLogger.Info().Str("store", w.Name).Msg("Content changed")
			offer(ch, s)
		}
	}()
	return ch, nil
}
