package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/db"
	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/util"
)

// DBStore keeps one row per record in a SQL database. A bulk push runs in a
// single transaction.
type DBStore struct {
	db           db.Db
	pollInterval time.Duration

	now   func() time.Time
	newID func() string
}

func NewDBStore(d db.Db, pollInterval time.Duration) *DBStore {
	return &DBStore{
		db:           d,
		pollInterval: pollInterval,
		now:          time.Now,
		newID:        util.NewID,
	}
}

// queryer is satisfied by *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn in a transaction and bumps the content revision before
// committing.
func (r *DBStore) inTx(ctx context.Context, write bool, fn func(q queryer) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if write {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(db.BumpRevision)); err != nil {
			return fmt.Errorf("failed to bump revision: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *DBStore) q(query string) string {
	return r.db.Rebind(query)
}

func (r *DBStore) PullAll(ctx context.Context) (*model.Snapshot, error) {
	s := model.NewSnapshot()
	err := r.inTx(ctx, false, func(q queryer) error {
		if err := r.readRecords(ctx, q, s); err != nil {
			return err
		}
		hero, err := r.readHero(ctx, q)
		if err != nil {
			return err
		}
		s.Hero = hero

		orders, err := r.readOrders(ctx, q)
		if err != nil {
			return err
		}
		s.Orders = orders
		return nil
	})
	if err != nil {
		return nil, transportErr(opPull, err)
	}
	s.Normalize()
	return s, nil
}

func (r *DBStore) readRecords(ctx context.Context, q queryer, s *model.Snapshot) error {
	rows, err := q.QueryContext(ctx, `SELECT kind, id, data FROM content_records ORDER BY kind, position`)
	if err != nil {
		return fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id, data string
		if err := rows.Scan(&kind, &id, &data); err != nil {
			return fmt.Errorf("error scanning record: %w", err)
		}
		k, err := model.ParseKind(kind)
		if err != nil || !k.Editable() {
			repoLogger.Warn().Str("kind", kind).Str("id", id).Msg("Skipping record of unknown kind")
			continue
		}
		if err := s.AppendRecord(k, id, []byte(data)); err != nil {
			return fmt.Errorf("error decoding %s/%s: %w", kind, id, err)
		}
	}
	return rows.Err()
}

func (r *DBStore) readHero(ctx context.Context, q queryer) (model.Hero, error) {
	var hero model.Hero
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM hero WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return hero, nil
	}
	if err != nil {
		return hero, fmt.Errorf("error querying hero: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &hero); err != nil {
		return hero, fmt.Errorf("error decoding hero: %w", err)
	}
	return hero, nil
}

func (r *DBStore) readOrders(ctx context.Context, q queryer) ([]model.Order, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, customer_name, customer_phone, customer_email, items, total_amount, status, created_at FROM orders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		var items, status string
		err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &items, &o.TotalAmount, &status, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning order: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return nil, fmt.Errorf("error decoding items of order %s: %w", o.ID, err)
		}
		o.Status = model.OrderStatus(status)
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *DBStore) PushAll(ctx context.Context, pushed *model.Snapshot) error {
	s := pushed.Clone()
	if err := checkUniqueIDs(s); err != nil {
		return transportErr(opPush, err)
	}
	s.AssignIDs(r.newID)
	now := r.now().UTC()

	err := r.inTx(ctx, true, func(q queryer) error {
		for _, kind := range model.EditableKinds {
			recs, err := s.EncodeRecords(kind)
			if err != nil {
				return err
			}
			if err := r.replaceKind(ctx, q, kind, recs, now); err != nil {
				return err
			}
		}
		return r.writeHero(ctx, q, s.Hero, now)
	})
	if err != nil {
		return transportErr(opPush, err)
	}
	repoLogger.Debug().Msg("Content pushed")
	return nil
}

// replaceKind makes the stored records of kind equal recs. Records that
// survive keep their creation time.
func (r *DBStore) replaceKind(ctx context.Context, q queryer, kind model.Kind, recs []model.RawRecord, now time.Time) error {
	existing, err := r.ids(ctx, q, kind)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(recs))
	for pos, rec := range recs {
		canonical, err := model.DecodeRecord(kind, rec.Data)
		if err != nil {
			return err
		}
		keep[rec.ID] = true
		_, err = q.ExecContext(ctx, r.q(`INSERT INTO content_records (kind, id, position, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (kind, id) DO UPDATE SET position = excluded.position, data = excluded.data, updated_at = excluded.updated_at`),
			string(kind), rec.ID, pos, string(canonical.Data), now, now)
		if err != nil {
			return fmt.Errorf("error saving %s/%s: %w", kind, rec.ID, err)
		}
	}

	for _, id := range existing {
		if keep[id] {
			continue
		}
		if _, err := q.ExecContext(ctx, r.q(`DELETE FROM content_records WHERE kind = ? AND id = ?`), string(kind), id); err != nil {
			return fmt.Errorf("error deleting %s/%s: %w", kind, id, err)
		}
	}
	return nil
}

func (r *DBStore) ids(ctx context.Context, q queryer, kind model.Kind) ([]string, error) {
	rows, err := q.QueryContext(ctx, r.q(`SELECT id FROM content_records WHERE kind = ?`), string(kind))
	if err != nil {
		return nil, fmt.Errorf("error querying %s ids: %w", kind, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *DBStore) writeHero(ctx context.Context, q queryer, h model.Hero, now time.Time) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, r.q(`INSERT INTO hero (id, data, updated_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`), string(data), now)
	if err != nil {
		return fmt.Errorf("error saving hero: %w", err)
	}
	return nil
}

func (r *DBStore) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return transportErr(opUpdateStatus, err)
	}
	err := r.inTx(ctx, true, func(q queryer) error {
		res, err := q.ExecContext(ctx, r.q(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`),
			string(status), r.now().UTC(), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil
	})
	return transportErr(opUpdateStatus, err)
}

func (r *DBStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	now := r.now()
	o, err := prepareOrder(o, now, r.newID)
	if err != nil {
		return o, transportErr(opCreateOrder, err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return o, transportErr(opCreateOrder, err)
	}

	err = r.inTx(ctx, true, func(q queryer) error {
		var n int
		if err := q.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM orders WHERE id = ?`), o.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: order %s already exists", ErrDuplicateID, o.ID)
		}
		_, err := q.ExecContext(ctx, r.q(`INSERT INTO orders (id, customer_name, customer_phone, customer_email, items, total_amount, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			o.ID, o.CustomerName, o.CustomerPhone, o.CustomerEmail, string(items), o.TotalAmount, string(o.Status), o.CreatedAt, now.UTC())
		return err
	})
	if err != nil {
		return o, transportErr(opCreateOrder, err)
	}
	return o, nil
}

func (r *DBStore) ListKind(ctx context.Context, kind model.Kind) ([]model.RawRecord, error) {
	if err := editableKind(kind); err != nil {
		return nil, transportErr(opList, err)
	}
	rows, err := r.db.Query(ctx, `SELECT id, data FROM content_records WHERE kind = ? ORDER BY position`, string(kind))
	if err != nil {
		return nil, transportErr(opList, err)
	}
	defer rows.Close()

	s := model.NewSnapshot()
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, transportErr(opList, err)
		}
		if err := s.AppendRecord(kind, id, []byte(data)); err != nil {
			return nil, transportErr(opList, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(opList, err)
	}
	recs, err := s.EncodeRecords(kind)
	return recs, transportErr(opList, err)
}

// stored returns data as the API shows it: canonical fields plus id.
func stored(kind model.Kind, id string, data []byte) (model.RawRecord, error) {
	s := model.NewSnapshot()
	if err := s.AppendRecord(kind, id, data); err != nil {
		return model.RawRecord{}, err
	}
	recs, err := s.EncodeRecords(kind)
	if err != nil {
		return model.RawRecord{}, err
	}
	return recs[0], nil
}

func (r *DBStore) InsertRecord(ctx context.Context, kind model.Kind, data []byte) (model.RawRecord, error) {
	rec, err := model.DecodeRecord(kind, data)
	if err != nil {
		return model.RawRecord{}, transportErr(opInsert, err)
	}
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	now := r.now().UTC()

	err = r.inTx(ctx, true, func(q queryer) error {
		var n int
		if err := q.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM content_records WHERE kind = ? AND id = ?`), string(kind), rec.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s %s already exists", ErrDuplicateID, kind, rec.ID)
		}
		var next int
		err := q.QueryRowContext(ctx, r.q(`SELECT COALESCE(MAX(position), -1) + 1 FROM content_records WHERE kind = ?`), string(kind)).Scan(&next)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, r.q(`INSERT INTO content_records (kind, id, position, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
			string(kind), rec.ID, next, string(rec.Data), now, now)
		return err
	})
	if err != nil {
		return model.RawRecord{}, transportErr(opInsert, err)
	}
	out, err := stored(kind, rec.ID, rec.Data)
	return out, transportErr(opInsert, err)
}

func (r *DBStore) ReplaceRecord(ctx context.Context, kind model.Kind, id string, data []byte) (model.RawRecord, error) {
	rec, err := model.DecodeRecord(kind, data)
	if err != nil {
		return model.RawRecord{}, transportErr(opReplace, err)
	}

	err = r.inTx(ctx, true, func(q queryer) error {
		res, err := q.ExecContext(ctx, r.q(`UPDATE content_records SET data = ?, updated_at = ? WHERE kind = ? AND id = ?`),
			string(rec.Data), r.now().UTC(), string(kind), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			if err == nil {
				err = fmt.Errorf("%w: %s/%s", ErrRecordNotFound, kind, id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.RawRecord{}, transportErr(opReplace, err)
	}
	out, err := stored(kind, id, rec.Data)
	return out, transportErr(opReplace, err)
}

func (r *DBStore) DeleteRecord(ctx context.Context, kind model.Kind, id string) error {
	if err := editableKind(kind); err != nil {
		return transportErr(opDelete, err)
	}
	err := r.inTx(ctx, true, func(q queryer) error {
		res, err := q.ExecContext(ctx, r.q(`DELETE FROM content_records WHERE kind = ? AND id = ?`), string(kind), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			if err == nil {
				err = fmt.Errorf("%w: %s/%s", ErrRecordNotFound, kind, id)
			}
			return err
		}
		return nil
	})
	return transportErr(opDelete, err)
}

func (r *DBStore) GetHero(ctx context.Context) (model.Hero, error) {
	var hero model.Hero
	err := r.inTx(ctx, false, func(q queryer) error {
		var err error
		hero, err = r.readHero(ctx, q)
		return err
	})
	return hero, transportErr(opHero, err)
}

func (r *DBStore) SetHero(ctx context.Context, h model.Hero) error {
	err := r.inTx(ctx, true, func(q queryer) error {
		return r.writeHero(ctx, q, h, r.now().UTC())
	})
	return transportErr(opHero, err)
}

// Revision returns a value that changes with every write.
func (r *DBStore) Revision(ctx context.Context) (string, error) {
	var rev int64
	if err := r.db.QueryRow(ctx, db.SelectRevision).Scan(&rev); err != nil {
		return "", fmt.Errorf("error reading revision: %w", err)
	}
	return strconv.FormatInt(rev, 10), nil
}

// Watch checks the revision on an interval and pulls only when it moved.
func (r *DBStore) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	w := &PollWatcher{Pull: r.PullAll, Version: r.Revision, Interval: r.pollInterval, Name: "db"}
	return w.Watch(ctx)
}
