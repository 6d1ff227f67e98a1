package repository

import (
	"bytes"
	"context"
	"errors"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util/compression"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/pb"
)

// KVStore keeps the snapshot under one key of a badger database.
type KVStore struct {
	*blobStore
	db  *badger.DB
	key []byte
}

type kvBlob struct {
	db  *badger.DB
	key []byte
}

func (k *kvBlob) read(context.Context) ([]byte, error) {
	var data []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func (k *kvBlob) write(_ context.Context, data []byte) error {
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k.key, data)
	})
}

// OpenKV opens (creating if needed) the badger database in dir.
func OpenKV(dir string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
}

func NewKVStore(db *badger.DB, key string, c compression.Compressor) *KVStore {
	k := []byte(key)
	return &KVStore{
		blobStore: newBlobStore("kv", &kvBlob{db: db, key: k}, c),
		db:        db,
		key:       k,
	}
}

// Watch reports every write to the key. Badger registers the subscription
// asynchronously, so a write racing the Watch call itself may go unreported.
func (s *KVStore) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	ch := make(chan *model.Snapshot, 1)

	go func() {
		defer close(ch)
		err := s.db.Subscribe(ctx, func(list *badger.KVList) error {
			for _, kv := range list.Kv {
				if !bytes.Equal(kv.Key, s.key) || len(kv.Value) == 0 {
					continue
				}
				snap, err := decodeBlob(kv.Value)
				if err != nil {
					repoLogger.Error().Err(err).Msg("Error decoding changed content")
					continue
				}
				offer(ch, snap)
			}
			return nil
		}, []pb.Match{{Prefix: s.key}})
		if err != nil && ctx.Err() == nil {
			repoLogger.Error().Err(err).Msg("Content subscription ended")
		}
	}()
	return ch, nil
}
