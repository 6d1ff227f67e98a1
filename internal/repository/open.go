package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/config"
	"github.com/debemdeboas/yasny-slukh/internal/db"
	"github.com/debemdeboas/yasny-slukh/internal/util/compression"
)

// Store is a ContentStore that also announces changes and accepts orders.
// Every backend satisfies it.
type Store interface {
	ContentStore
	Watcher
	OrderSink
}

// Open builds the store cfg selects. getenv supplies credentials that are kept
// out of the config file. The returned func releases the backend.
func Open(ctx context.Context, cfg config.StorageConfig, getenv func(string) string) (Store, func() error, error) {
	noop := func() error { return nil }

	c, err := compression.New(cfg.Compression)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case config.BackendSQLite, config.BackendPostgres:
		var d db.Db
		if cfg.Backend == config.BackendSQLite {
			d = db.NewSQLite(cfg.SQLitePath)
		} else {
			d = db.NewPostgres(cfg.PostgresDSN)
		}
		if err := d.InitDb(); err != nil {
			return nil, nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
		}
		return NewDBStore(d, cfg.PollInterval), d.Close, nil

	case config.BackendRemote:
		s, err := NewHTTPStore(cfg.Endpoint, &http.Client{Timeout: 30 * time.Second}, cfg.PollInterval)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.BackendKV:
		kv, err := OpenKV(cfg.KVDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", cfg.KVDir, err)
		}
		return NewKVStore(kv, cfg.Key, c), kv.Close, nil

	case config.BackendFile:
		// The file stays plain JSON so it can be edited by hand.
		s, err := NewFileStore(cfg.FilePath, compression.NoneCompressor{})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.BackendS3:
		client, err := NewS3Client(ctx, S3Options{
			AccessKeyID:     getenv("S3_ACCESS_KEY_ID"),
			AccessKeySecret: getenv("S3_SECRET_ACCESS_KEY"),
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			PathStyle:       cfg.S3.Endpoint != "",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating s3 client: %w", err)
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.Key, c, cfg.PollInterval), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
