package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/transfer"
)

// StatusPublisher announces order status changes to other systems.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// Handlers serves the data endpoint on top of a content store.
type Handlers struct {
	store   repository.ContentStore
	records repository.CollectionStore
	orders  repository.OrderSink
	status  StatusPublisher
}

type Option func(*Handlers)

// WithStatusPublisher publishes every successful status change to p.
func WithStatusPublisher(p StatusPublisher) Option {
	return func(h *Handlers) {
		h.status = p
	}
}

func NewHandlers(store repository.ContentStore, opts ...Option) *Handlers {
	h := &Handlers{
		store:   store,
		records: repository.Collections(store),
	}
	if sink, ok := store.(repository.OrderSink); ok {
		h.orders = sink
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// target is the parsed type parameter.
type target struct {
	raw  string
	kind model.Kind
}

func parseTarget(r *http.Request) (target, bool) {
	t := target{raw: r.URL.Query().Get("type")}
	switch t.raw {
	case repository.TypeAll, repository.TypeBulk, repository.TypeHero:
		return t, true
	}
	kind, err := model.ParseKind(t.raw)
	if err != nil {
		return t, false
	}
	t.kind = kind
	return t, true
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	t, ok := parseTarget(r)
	if !ok || t.raw == repository.TypeBulk {
		writeError(w, http.StatusBadRequest, CodeInvalidType, msgInvalidType)
		return
	}

	switch {
	case t.raw == repository.TypeAll:
		s, err := h.store.PullAll(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	case t.raw == repository.TypeHero:
		hero, err := h.records.GetHero(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hero)
	case t.kind == model.KindOrders:
		s, err := h.store.PullAll(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Orders)
	default:
		recs, err := h.records.ListKind(r.Context(), t.kind)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records(recs))
	}
}

func (h *Handlers) post(w http.ResponseWriter, r *http.Request) {
	t, ok := parseTarget(r)
	if !ok || t.raw == repository.TypeAll {
		writeError(w, http.StatusBadRequest, CodeInvalidType, msgInvalidType)
		return
	}

	switch {
	case t.raw == repository.TypeBulk:
		s, err := h.readBulk(w, r)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if err := h.store.PushAll(r.Context(), s); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Message{Message: msgBulkSaved})
	case t.raw == repository.TypeHero:
		h.setHero(w, r)
	case t.kind == model.KindOrders:
		h.createOrder(w, r)
	default:
		data, _, err := readObject(w, r)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		rec, err := h.records.InsertRecord(r.Context(), t.kind, data)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec.Data)
	}
}

func (h *Handlers) put(w http.ResponseWriter, r *http.Request) {
	t, ok := parseTarget(r)
	if !ok || t.raw == repository.TypeAll || t.raw == repository.TypeBulk {
		writeError(w, http.StatusBadRequest, CodeInvalidType, msgInvalidType)
		return
	}

	switch {
	case t.raw == repository.TypeHero:
		h.setHero(w, r)
	case t.kind == model.KindOrders:
		h.updateOrderStatus(w, r)
	default:
		data, id, err := readObject(w, r)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if id == "" {
			writeError(w, http.StatusBadRequest, CodeMissingID, msgMissingID)
			return
		}
		rec, err := h.records.ReplaceRecord(r.Context(), t.kind, id, data)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec.Data)
	}
}

func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	t, ok := parseTarget(r)
	if !ok || !t.kind.Editable() {
		writeError(w, http.StatusBadRequest, CodeInvalidType, msgInvalidType)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" && r.ContentLength != 0 {
		_, bodyID, err := readObject(w, r)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		id = bodyID
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, CodeMissingID, msgMissingID)
		return
	}

	if err := h.records.DeleteRecord(r.Context(), t.kind, id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: msgDeleted})
}

func (h *Handlers) setHero(w http.ResponseWriter, r *http.Request) {
	var hero model.Hero
	if err := decodeBody(w, r, &hero); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := h.records.SetHero(r.Context(), hero); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Orders cannot be created on this store")
		return
	}
	var o model.Order
	if err := decodeBody(w, r, &o); err != nil {
		writeStoreError(w, err)
		return
	}
	created, err := h.orders.CreateOrder(r.Context(), o)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	apiLogger.Info().Str("order_id", created.ID).Msg("Order created")
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var upd repository.StatusUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		writeStoreError(w, err)
		return
	}
	if upd.ID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingID, msgMissingID)
		return
	}
	status, err := model.ParseOrderStatus(string(upd.Status))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if err := h.store.UpdateOrderStatus(r.Context(), upd.ID, status); err != nil {
		writeStoreError(w, err)
		return
	}

	if h.status != nil {
		if err := h.status.PublishStatus(r.Context(), upd.ID, status); err != nil {
			apiLogger.Warn().Err(err).Str("order_id", upd.ID).Msg("Error publishing status change")
		}
	}
	writeJSON(w, http.StatusOK, repository.StatusUpdate{ID: upd.ID, Status: status})
}

// readBulk decodes a bulk body. Collections and the hero missing from the
// body keep their stored values.
func (h *Handlers) readBulk(w http.ResponseWriter, r *http.Request) (*model.Snapshot, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize))
	if err != nil {
		return nil, &transfer.FormatError{Err: err}
	}
	pushed, err := transfer.Parse(data)
	if err != nil {
		return nil, err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, &transfer.FormatError{Err: err}
	}

	stored, err := h.store.PullAll(r.Context())
	if err != nil {
		return nil, err
	}
	keepAbsent(pushed, stored, present)
	return pushed, nil
}

func keepAbsent(pushed, stored *model.Snapshot, present map[string]json.RawMessage) {
	has := func(key string) bool {
		_, ok := present[key]
		return ok
	}
	if !has(string(model.KindProducts)) {
		pushed.Products = stored.Products
	}
	if !has(string(model.KindServices)) {
		pushed.Services = stored.Services
	}
	if !has(string(model.KindArticles)) {
		pushed.Articles = stored.Articles
	}
	if !has(string(model.KindAbout)) {
		pushed.About = stored.About
	}
	if !has(string(model.KindAdvantages)) {
		pushed.Advantages = stored.Advantages
	}
	if !has(string(model.KindPartners)) {
		pushed.Partners = stored.Partners
	}
	if !has(repository.TypeHero) {
		pushed.Hero = stored.Hero
	}
}
