package repository

import (
	"fmt"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

// prepareOrder fills in what the store owns on a new order.
func prepareOrder(o model.Order, now time.Time, newID func() string) (model.Order, error) {
	o = o.Clone()
	if o.ID == "" {
		o.ID = newID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now.UTC()
	}
	if o.Status == "" {
		o.Status = model.StatusNew
	}
	if _, err := model.ParseOrderStatus(string(o.Status)); err != nil {
		return o, err
	}
	if o.Items == nil {
		o.Items = []model.LineItem{}
	}
	return o, nil
}

// setOrderStatus changes the status of one order of s in place.
func setOrderStatus(s *model.Snapshot, id string, status model.OrderStatus) error {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return err
	}
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			s.Orders[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// duplicateID returns the first id used twice within one collection.
func duplicateID(s *model.Snapshot) (model.Kind, string, bool) {
	for _, kind := range model.EditableKinds {
		recs, err := s.EncodeRecords(kind)
		if err != nil {
			continue
		}
		seen := make(map[string]bool, len(recs))
		for _, r := range recs {
			if r.ID == "" {
				continue
			}
			if seen[r.ID] {
				return kind, r.ID, true
			}
			seen[r.ID] = true
		}
	}
	return "", "", false
}

func checkUniqueIDs(s *model.Snapshot) error {
	if kind, id, dup := duplicateID(s); dup {
		return fmt.Errorf("%w %q in %s", ErrDuplicateID, id, kind)
	}
	return nil
}
