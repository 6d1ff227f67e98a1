package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Snapshot is the whole editable content of the site as one document. It is
// the unit of bulk pull/push, import/export and the admin's working draft.
type Snapshot struct {
	Products   []Product   `json:"products"`
	Services   []Service   `json:"services"`
	Articles   []Article   `json:"articles"`
	About      []AboutItem `json:"about"`
	Advantages []Advantage `json:"advantages"`
	Partners   []Partner   `json:"partners"`
	Hero       Hero        `json:"hero"`
	Orders     []Order     `json:"orders"`
}

func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones so that encoding always
// yields lists and decoded documents compare equal to their source.
func (s *Snapshot) Normalize() {
	if s.Products == nil {
		s.Products = []Product{}
	}
	if s.Services == nil {
		s.Services = []Service{}
	}
	if s.Articles == nil {
		s.Articles = []Article{}
	}
	if s.About == nil {
		s.About = []AboutItem{}
	}
	if s.Advantages == nil {
		s.Advantages = []Advantage{}
	}
	if s.Partners == nil {
		s.Partners = []Partner{}
	}
	if s.Orders == nil {
		s.Orders = []Order{}
	}
	for i := range s.Orders {
		if s.Orders[i].Items == nil {
			s.Orders[i].Items = []LineItem{}
		}
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return NewSnapshot()
	}
	c := &Snapshot{
		Products:   slices.Clone(s.Products),
		Services:   slices.Clone(s.Services),
		Articles:   slices.Clone(s.Articles),
		About:      slices.Clone(s.About),
		Advantages: slices.Clone(s.Advantages),
		Partners:   slices.Clone(s.Partners),
		Hero:       s.Hero,
		Orders:     make([]Order, len(s.Orders)),
	}
	for i, o := range s.Orders {
		c.Orders[i] = o.Clone()
	}
	c.Normalize()
	return c
}

// WithOrders returns a shallow copy of s whose order list is orders.
func (s *Snapshot) WithOrders(orders []Order) *Snapshot {
	c := *s
	c.Orders = orders
	c.Normalize()
	return &c
}

func (s *Snapshot) Len(kind Kind) int {
	switch kind {
	case KindProducts:
		return len(s.Products)
	case KindServices:
		return len(s.Services)
	case KindArticles:
		return len(s.Articles)
	case KindAbout:
		return len(s.About)
	case KindAdvantages:
		return len(s.Advantages)
	case KindPartners:
		return len(s.Partners)
	case KindOrders:
		return len(s.Orders)
	}
	return 0
}

func (s *Snapshot) Order(id string) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

func (s *Snapshot) Article(id string) (Article, bool) {
	for _, a := range s.Articles {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

// AssignIDs gives every editable record without an id one from newID.
func (s *Snapshot) AssignIDs(newID func() string) {
	s.Products = assignIDs(s.Products, newID)
	s.Services = assignIDs(s.Services, newID)
	s.Articles = assignIDs(s.Articles, newID)
	s.About = assignIDs(s.About, newID)
	s.Advantages = assignIDs(s.Advantages, newID)
	s.Partners = assignIDs(s.Partners, newID)
}

func assignIDs[T Record[T]](items []T, newID func() string) []T {
	for i, it := range items {
		if it.GetID() == "" {
			items[i] = it.WithID(newID())
		}
	}
	return items
}

// RawRecord is one record of a collection in its JSON form.
type RawRecord struct {
	ID   string
	Data json.RawMessage
}

// EncodeRecords returns the records of kind, in order, as JSON.
func (s *Snapshot) EncodeRecords(kind Kind) ([]RawRecord, error) {
	switch kind {
	case KindProducts:
		return encodeRecords(s.Products)
	case KindServices:
		return encodeRecords(s.Services)
	case KindArticles:
		return encodeRecords(s.Articles)
	case KindAbout:
		return encodeRecords(s.About)
	case KindAdvantages:
		return encodeRecords(s.Advantages)
	case KindPartners:
		return encodeRecords(s.Partners)
	}
	return nil, fmt.Errorf("collection %q has no editable records", kind)
}

func encodeRecords[T Record[T]](items []T) ([]RawRecord, error) {
	out := make([]RawRecord, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		out = append(out, RawRecord{ID: it.GetID(), Data: data})
	}
	return out, nil
}

// AppendRecord decodes data as a record of kind and appends it. The stored id
// wins over any id embedded in data.
func (s *Snapshot) AppendRecord(kind Kind, id string, data []byte) error {
	var err error
	switch kind {
	case KindProducts:
		s.Products, err = appendRecord(s.Products, id, data)
	case KindServices:
		s.Services, err = appendRecord(s.Services, id, data)
	case KindArticles:
		s.Articles, err = appendRecord(s.Articles, id, data)
	case KindAbout:
		s.About, err = appendRecord(s.About, id, data)
	case KindAdvantages:
		s.Advantages, err = appendRecord(s.Advantages, id, data)
	case KindPartners:
		s.Partners, err = appendRecord(s.Partners, id, data)
	default:
		err = fmt.Errorf("collection %q has no editable records", kind)
	}
	return err
}

func appendRecord[T Record[T]](items []T, id string, data []byte) ([]T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return items, err
	}
	return append(items, rec.WithID(id)), nil
}

// DecodeRecord parses a single record of kind and returns its id and
// canonical JSON form.
func DecodeRecord(kind Kind, data []byte) (RawRecord, error) {
	s := NewSnapshot()
	if err := s.AppendRecord(kind, "", data); err != nil {
		return RawRecord{}, err
	}
	var id struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return RawRecord{}, err
	}
	recs, err := s.EncodeRecords(kind)
	if err != nil {
		return RawRecord{}, err
	}
	return RawRecord{ID: id.ID, Data: recs[0].Data}, nil
}

// ReplaceRecord swaps the record with the given id for data, keeping its
// position. It reports false when no record has that id.
func (s *Snapshot) ReplaceRecord(kind Kind, id string, data []byte) (bool, error) {
	switch kind {
	case KindProducts:
		return replaceRecord(s.Products, id, data)
	case KindServices:
		return replaceRecord(s.Services, id, data)
	case KindArticles:
		return replaceRecord(s.Articles, id, data)
	case KindAbout:
		return replaceRecord(s.About, id, data)
	case KindAdvantages:
		return replaceRecord(s.Advantages, id, data)
	case KindPartners:
		return replaceRecord(s.Partners, id, data)
	}
	return false, fmt.Errorf("collection %q has no editable records", kind)
}

func replaceRecord[T Record[T]](items []T, id string, data []byte) (bool, error) {
	for i, it := range items {
		if it.GetID() != id {
			continue
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return false, err
		}
		items[i] = rec.WithID(id)
		return true, nil
	}
	return false, nil
}

// RemoveRecord deletes the record with the given id and reports whether it
// existed.
func (s *Snapshot) RemoveRecord(kind Kind, id string) bool {
	var ok bool
	switch kind {
	case KindProducts:
		s.Products, ok = removeRecord(s.Products, id)
	case KindServices:
		s.Services, ok = removeRecord(s.Services, id)
	case KindArticles:
		s.Articles, ok = removeRecord(s.Articles, id)
	case KindAbout:
		s.About, ok = removeRecord(s.About, id)
	case KindAdvantages:
		s.Advantages, ok = removeRecord(s.Advantages, id)
	case KindPartners:
		s.Partners, ok = removeRecord(s.Partners, id)
	}
	return ok
}

func removeRecord[T Record[T]](items []T, id string) ([]T, bool) {
	i := slices.IndexFunc(items, func(it T) bool { return it.GetID() == id })
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}
