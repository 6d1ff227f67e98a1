package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

// Query values of the data endpoint's type parameter that are not kinds.
const (
	TypeAll  = "all"
	TypeBulk = "bulk"
	TypeHero = "hero"
)

// StatusUpdate is the body of an order status change.
type StatusUpdate struct {
	ID     string            `json:"id"`
	Status model.OrderStatus `json:"status"`
}

// HTTPStore talks to a remote data endpoint.
type HTTPStore struct {
	endpoint     *url.URL
	client       *http.Client
	pollInterval time.Duration
}

func NewHTTPStore(endpoint string, client *http.Client, pollInterval time.Duration) (*HTTPStore, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStore{endpoint: u, client: client, pollInterval: pollInterval}, nil
}

func (h *HTTPStore) url(typ string) string {
	u := *h.endpoint
	q := u.Query()
	q.Set("type", typ)
	u.RawQuery = q.Encode()
	return u.String()
}

// apiError mirrors the error body of the data endpoint.
type apiError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// do sends body (when not nil) as JSON and decodes a 2xx response into out
// (when not nil).
func (h *HTTPStore) do(ctx context.Context, op, method, typ string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.url(typ), reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := resp.Status
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			msg = ae.Message
		}
		var cause error = errors.New(msg)
		switch {
		case resp.StatusCode == http.StatusNotFound && typ == string(model.KindOrders):
			cause = fmt.Errorf("%w: %s", ErrOrderNotFound, msg)
		case resp.StatusCode == http.StatusNotFound:
			cause = fmt.Errorf("%w: %s", ErrRecordNotFound, msg)
		case resp.StatusCode == http.StatusConflict:
			cause = fmt.Errorf("%w: %s", ErrDuplicateID, msg)
		}
		return &TransportError{Op: op, Status: resp.StatusCode, Err: cause}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return nil
}

func (h *HTTPStore) PullAll(ctx context.Context) (*model.Snapshot, error) {
	s := &model.Snapshot{}
	if err := h.do(ctx, opPull, http.MethodGet, TypeAll, nil, s); err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}

func (h *HTTPStore) PushAll(ctx context.Context, s *model.Snapshot) error {
	return h.do(ctx, opPush, http.MethodPost, TypeBulk, s.Clone(), nil)
}

func (h *HTTPStore) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return h.do(ctx, opUpdateStatus, http.MethodPut, string(model.KindOrders), StatusUpdate{ID: id, Status: status}, nil)
}

func (h *HTTPStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	var created model.Order
	if err := h.do(ctx, opCreateOrder, http.MethodPost, string(model.KindOrders), o, &created); err != nil {
		return o, err
	}
	return created, nil
}

// Watch polls the endpoint since it has no change stream.
func (h *HTTPStore) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	w := &PollWatcher{Pull: h.PullAll, Interval: h.pollInterval, Name: "remote"}
	return w.Watch(ctx)
}
