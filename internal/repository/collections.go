package repository

import (
	"context"
	"fmt"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util"
)

// Collections returns the per-record view of store. Stores without native
// record access are edited through a pull and a bulk push, which is no more
// atomic than the bulk path itself.
func Collections(store ContentStore) CollectionStore {
	if cs, ok := store.(CollectionStore); ok {
		return cs
	}
	return &snapshotCollections{store: store, newID: util.NewID}
}

type snapshotCollections struct {
	store ContentStore
	newID func() string
}

func editableKind(kind model.Kind) error {
	if !kind.Editable() {
		return fmt.Errorf("collection %q has no editable records", kind)
	}
	return nil
}

func recordByID(s *model.Snapshot, kind model.Kind, id string) (model.RawRecord, error) {
	recs, err := s.EncodeRecords(kind)
	if err != nil {
		return model.RawRecord{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return model.RawRecord{}, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, kind, id)
}

func (c *snapshotCollections) ListKind(ctx context.Context, kind model.Kind) ([]model.RawRecord, error) {
	if err := editableKind(kind); err != nil {
		return nil, transportErr(opList, err)
	}
	s, err := c.store.PullAll(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.EncodeRecords(kind)
	return recs, transportErr(opList, err)
}

func (c *snapshotCollections) InsertRecord(ctx context.Context, kind model.Kind, data []byte) (model.RawRecord, error) {
	rec, err := model.DecodeRecord(kind, data)
	if err != nil {
		return model.RawRecord{}, transportErr(opInsert, err)
	}
	if rec.ID == "" {
		rec.ID = c.newID()
	}

	s, err := c.store.PullAll(ctx)
	if err != nil {
		return model.RawRecord{}, err
	}
	if _, err := recordByID(s, kind, rec.ID); err == nil {
		return model.RawRecord{}, transportErr(opInsert, fmt.Errorf("%w: record %s already exists", ErrDuplicateID, rec.ID))
	}
	if err := s.AppendRecord(kind, rec.ID, rec.Data); err != nil {
		return model.RawRecord{}, transportErr(opInsert, err)
	}
	if err := c.store.PushAll(ctx, s); err != nil {
		return model.RawRecord{}, err
	}
	stored, err := recordByID(s, kind, rec.ID)
	return stored, transportErr(opInsert, err)
}

func (c *snapshotCollections) ReplaceRecord(ctx context.Context, kind model.Kind, id string, data []byte) (model.RawRecord, error) {
	if err := editableKind(kind); err != nil {
		return model.RawRecord{}, transportErr(opReplace, err)
	}
	s, err := c.store.PullAll(ctx)
	if err != nil {
		return model.RawRecord{}, err
	}
	ok, err := s.ReplaceRecord(kind, id, data)
	if err != nil {
		return model.RawRecord{}, transportErr(opReplace, err)
	}
	if !ok {
		return model.RawRecord{}, transportErr(opReplace, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, kind, id))
	}
	if err := c.store.PushAll(ctx, s); err != nil {
		return model.RawRecord{}, err
	}
	stored, err := recordByID(s, kind, id)
	return stored, transportErr(opReplace, err)
}

func (c *snapshotCollections) DeleteRecord(ctx context.Context, kind model.Kind, id string) error {
	if err := editableKind(kind); err != nil {
		return transportErr(opDelete, err)
	}
	s, err := c.store.PullAll(ctx)
	if err != nil {
		return err
	}
	if !s.RemoveRecord(kind, id) {
		return transportErr(opDelete, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, kind, id))
	}
	return c.store.PushAll(ctx, s)
}

func (c *snapshotCollections) GetHero(ctx context.Context) (model.Hero, error) {
	s, err := c.store.PullAll(ctx)
	if err != nil {
		return model.Hero{}, err
	}
	return s.Hero, nil
}

func (c *snapshotCollections) SetHero(ctx context.Context, h model.Hero) error {
	s, err := c.store.PullAll(ctx)
	if err != nil {
		return err
	}
	s.Hero = h
	return c.store.PushAll(ctx, s)
}
