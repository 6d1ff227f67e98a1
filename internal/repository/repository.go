// Package repository persists site content. Every backend stores the whole
// snapshot and is read and written in bulk.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateID    = errors.New("duplicate id")
)

// ContentStore is the backing medium of the admin draft.
type ContentStore interface {
	// PullAll fetches every collection and the hero in one round trip.
	PullAll(ctx context.Context) (*model.Snapshot, error)
	// PushAll replaces every editable collection and the hero. Stored orders
	// are left as they are. Records without an id are given one.
	PushAll(ctx context.Context, s *model.Snapshot) error
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// Watcher announces the stored snapshot after it changes. The channel keeps
// only the latest snapshot for a slow reader and is closed when ctx ends.
type Watcher interface {
	Watch(ctx context.Context) (<-chan *model.Snapshot, error)
}

// OrderSink accepts orders placed by the storefront.
type OrderSink interface {
	// CreateOrder stores o and returns it with its id, creation time and
	// status filled in.
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
}

// CollectionStore edits single records of one collection.
type CollectionStore interface {
	ListKind(ctx context.Context, kind model.Kind) ([]model.RawRecord, error)
	InsertRecord(ctx context.Context, kind model.Kind, data []byte) (model.RawRecord, error)
	ReplaceRecord(ctx context.Context, kind model.Kind, id string, data []byte) (model.RawRecord, error)
	DeleteRecord(ctx context.Context, kind model.Kind, id string) error
	GetHero(ctx context.Context) (model.Hero, error)
	SetHero(ctx context.Context, h model.Hero) error
}

// TransportError is returned by every store operation that fails.
type TransportError struct {
	Op string
	// Status is the HTTP status of a remote store, zero otherwise.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

const (
	opPull         = "pull"
	opPush         = "push"
	opUpdateStatus = "update order status"
	opCreateOrder  = "create order"
	opList         = "list records"
	opInsert       = "insert record"
	opReplace      = "replace record"
	opDelete       = "delete record"
	opHero         = "hero"
)
