package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util"
	"github.com/debemdeboas/yasny-slukh/internal/util/compression"
)

// blob is a medium holding one encoded snapshot.
type blob interface {
	// read returns nil data and no error when nothing has been stored yet.
	read(ctx context.Context) ([]byte, error)
	write(ctx context.Context, data []byte) error
}

// blobStore implements the store operations for backends that keep the
// whole snapshot as a single value. Writes are read-modify-write so that
// stored orders survive a bulk push.
type blobStore struct {
	mu sync.Mutex

	name       string
	medium     blob
	compressor compression.Compressor

	now   func() time.Time
	newID func() string

	// afterWrite runs with the written snapshot while mu is held.
	afterWrite func(s *model.Snapshot)
}

func newBlobStore(name string, medium blob, c compression.Compressor) *blobStore {
	if c == nil {
		c = compression.NoneCompressor{}
	}
	return &blobStore{
		name:       name,
		medium:     medium,
		compressor: c,
		now:        time.Now,
		newID:      util.NewID,
	}
}

func (b *blobStore) encode(s *model.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding snapshot: %w", err)
	}
	return b.compressor.Compress(data)
}

// decodeBlob reads a stored value written with any supported compression.
func decodeBlob(data []byte) (*model.Snapshot, error) {
	s := model.NewSnapshot()
	if len(data) == 0 {
		return s, nil
	}
	raw, err := compression.Open(data)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("error decoding content: %w", err)
	}
	s.Normalize()
	return s, nil
}

func (b *blobStore) load(ctx context.Context) (*model.Snapshot, error) {
	data, err := b.medium.read(ctx)
	if err != nil {
		return nil, err
	}
	return decodeBlob(data)
}

func (b *blobStore) store(ctx context.Context, s *model.Snapshot) error {
	data, err := b.encode(s)
	if err != nil {
		return err
	}
	if err := b.medium.write(ctx, data); err != nil {
		return err
	}
	if b.afterWrite != nil {
		b.afterWrite(s)
	}
	return nil
}

// modify runs fn on the stored snapshot and writes the result back.
func (b *blobStore) modify(ctx context.Context, fn func(s *model.Snapshot) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return b.store(ctx, s)
}

func (b *blobStore) PullAll(ctx context.Context) (*model.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.load(ctx)
	if err != nil {
		return nil, transportErr(opPull, err)
	}
	return s, nil
}

func (b *blobStore) PushAll(ctx context.Context, pushed *model.Snapshot) error {
	next := pushed.Clone()
	if err := checkUniqueIDs(next); err != nil {
		return transportErr(opPush, err)
	}
	next.AssignIDs(b.newID)

	err := b.modify(ctx, func(stored *model.Snapshot) error {
		*stored = *next.WithOrders(stored.Orders)
		return nil
	})
	if err != nil {
		return transportErr(opPush, err)
	}
	repoLogger.Debug().Str("store", b.name).Msg("Content pushed")
	return nil
}

func (b *blobStore) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	err := b.modify(ctx, func(s *model.Snapshot) error {
		return setOrderStatus(s, id, status)
	})
	return transportErr(opUpdateStatus, err)
}

func (b *blobStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o, err := prepareOrder(o, b.now(), b.newID)
	if err != nil {
		return o, transportErr(opCreateOrder, err)
	}
	err = b.modify(ctx, func(s *model.Snapshot) error {
		if _, exists := s.Order(o.ID); exists {
			return fmt.Errorf("%w: order %s already exists", ErrDuplicateID, o.ID)
		}
		s.Orders = append(s.Orders, o)
		return nil
	})
	if err != nil {
		return o, transportErr(opCreateOrder, err)
	}
	return o, nil
}
