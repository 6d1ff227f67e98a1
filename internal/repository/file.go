package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util/compression"
	"github.com/fsnotify/fsnotify"
)

// FileStore keeps the snapshot in a single file. Writes go to a temporary
// file that is renamed over the target, so readers never see a partial file.
type FileStore struct {
	*blobStore
	path string
}

type fileBlob struct {
	path string
}

func (f *fileBlob) read(context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *fileBlob) write(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func NewFileStore(path string, c compression.Compressor) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{
		blobStore: newBlobStore("file", &fileBlob{path: abs}, c),
		path:      abs,
	}, nil
}

func (s *FileStore) Path() string { return s.path }

// Watch reports changes to the file made by this or any other process.
func (s *FileStore) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, transportErr(opPull, err)
	}
	// The directory is watched because renames replace the file's inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, transportErr(opPull, err)
	}

	lastHash := ""
	if current, err := s.PullAll(ctx); err == nil {
		lastHash = snapshotHash(current)
	}

	ch := make(chan *model.Snapshot, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				snap, err := s.PullAll(ctx)
				if err != nil {
					// A writer that does not rename may be mid-write.
					repoLogger.Debug().Err(err).Str("path", s.path).Msg("Skipping unreadable content file")
					continue
				}
				h := snapshotHash(snap)
				if h == lastHash {
					continue
				}
				lastHash = h
				repoLogger.Info().Str("path", s.path).Msg("Content file changed")
				offer(ch, snap)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				repoLogger.Warn().Err(err).Msg("Content file watcher error")
			}
		}
	}()
	return ch, nil
}
