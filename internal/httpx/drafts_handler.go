package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/yzzyx/invoice/internal/catalog"
	"github.com/yzzyx/invoice/internal/draft"
	kafkax "github.com/yzzyx/invoice/internal/kafka"
	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
	"github.com/yzzyx/invoice/internal/redisx"
)

// DraftsHandler maps UI intents onto draft sessions. Every mutation
// answers with a fresh snapshot (lines + total) so the shell never
// holds references into the core.
type DraftsHandler struct {
	Catalog  *catalog.Repo
	Orders   *orders.Repo
	Sessions *draft.Sessions
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

type openDraftReq struct {
	OrderID int64 `json:"order_id"` // 0 or absent opens a new order
}

type editItemReq struct {
	Comment *string `json:"comment"`
	Price   *string `json:"price"`
	Count   *int    `json:"count"`
}

type headerReq struct {
	Description *string `json:"description"`
	CustomerID  *int64  `json:"customer_id"`
	Status      *string `json:"status"`
}

type addItemReq struct {
	ProductID int64 `json:"product_id"`
}

func (h *DraftsHandler) Register(r *chi.Mux) {
	r.Post("/drafts", h.open)
	r.Get("/drafts/{id}", h.get)
	r.Put("/drafts/{id}", h.editHeader)
	r.Post("/drafts/{id}/items", h.addItem)
	r.Post("/drafts/{id}/items/{key}/increase", h.increase)
	r.Post("/drafts/{id}/items/{key}/decrease", h.decrease)
	r.Put("/drafts/{id}/items/{key}", h.editItem)
	r.Delete("/drafts/{id}/items/{key}", h.removeItem)
	r.Post("/drafts/{id}/commit", h.commit)
	r.Delete("/drafts/{id}", h.cancel)
}

// open seeds a session with a fresh catalog snapshot and, for an
// existing order, its header and line items. A miss on the order id
// fails fast: no session is created.
func (h *DraftsHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openDraftReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.Catalog.List(ctx, catalog.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var d *draft.Draft
	if req.OrderID > 0 {
		o, err := h.Orders.Get(ctx, req.OrderID)
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items, err := h.Orders.LineItems(ctx, o.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		d = draft.Load(o, items, products)
	} else {
		d = draft.New(products)
	}

	s := h.Sessions.Open(d)
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *DraftsHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *DraftsHandler) addItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.mutate(w, s, func(d *draft.Draft) error {
		_, err := d.AddLineItem(req.ProductID)
		return err
	})
}

func (h *DraftsHandler) increase(w http.ResponseWriter, r *http.Request) {
	h.bump(w, r, (*draft.Draft).IncreaseCount)
}

func (h *DraftsHandler) decrease(w http.ResponseWriter, r *http.Request) {
	h.bump(w, r, (*draft.Draft).DecreaseCount)
}

func (h *DraftsHandler) bump(w http.ResponseWriter, r *http.Request, op func(*draft.Draft, int) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	key, err := strconv.Atoi(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}
	h.mutate(w, s, func(d *draft.Draft) error { return op(d, key) })
}

// editItem applies comment, price and count. A malformed price keeps
// the previous valid value and the rest of the edit still goes through
// (invalid numeric entry is ignored, never propagated as garbage).
func (h *DraftsHandler) editItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	key, err := strconv.Atoi(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}
	var req editItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.mutate(w, s, func(d *draft.Draft) error {
		cur, err := d.Item(key)
		if err != nil {
			return err
		}
		comment := cur.Comment
		if req.Comment != nil {
			comment = *req.Comment
		}
		price := cur.Price
		if req.Price != nil {
			if p, err := money.Parse(*req.Price); err == nil {
				price = p
			}
		}
		count := cur.Count
		if req.Count != nil {
			count = *req.Count
		}
		return d.EditLineItem(key, comment, price, count)
	})
}

func (h *DraftsHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	key, err := strconv.Atoi(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}
	h.mutate(w, s, func(d *draft.Draft) error { return d.RemoveLineItem(key) })
}

func (h *DraftsHandler) editHeader(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req headerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.mutate(w, s, func(d *draft.Draft) error {
		o := d.Order()
		desc, cust := o.Description, o.CustomerID
		if req.Description != nil {
			desc = *req.Description
		}
		if req.CustomerID != nil {
			cust = *req.CustomerID
		}
		if err := d.SetHeader(desc, cust); err != nil {
			return err
		}
		if req.Status != nil {
			st, err := orders.ParseStatus(*req.Status)
			if err != nil {
				return err
			}
			return d.SetStatus(st)
		}
		return nil
	})
}

func (h *DraftsHandler) commit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var (
		committed orders.Order
		lines     []draft.LineItem
		total     money.Money
	)
	err := s.Do(func(d *draft.Draft) error {
		lines = d.Items()
		total = d.Total()
		var err error
		committed, err = d.Commit(ctx, h.Orders)
		return err
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, draft.ErrNotEditing) {
			code = http.StatusConflict
		}
		writeError(w, code, err.Error())
		return
	}

	h.Sessions.Close(s.ID)
	h.cacheStatus(ctx, committed)
	h.publishCommitted(r, committed, lines, total)

	writeJSON(w, http.StatusOK, map[string]any{"order": committed, "total": total})
}

func (h *DraftsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = s.Do(func(d *draft.Draft) error {
		d.Cancel()
		return nil
	})
	h.Sessions.Close(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DraftsHandler) session(w http.ResponseWriter, r *http.Request) (*draft.Session, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such draft session")
		return nil, false
	}
	return s, true
}

// mutate runs op under the session lock and answers with the snapshot
// the UI should render next.
func (h *DraftsHandler) mutate(w http.ResponseWriter, s *draft.Session, op func(*draft.Draft) error) {
	if err := s.Do(op); err != nil {
		switch {
		case errors.Is(err, draft.ErrNoSuchItem), errors.Is(err, draft.ErrUnknownProduct):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, draft.ErrNotEditing):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *DraftsHandler) cacheStatus(ctx context.Context, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body, _ := json.Marshal(map[string]any{"status": o.Status, "invoice_file": o.InvoiceFile})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *DraftsHandler) publishCommitted(r *http.Request, o orders.Order, lines []draft.LineItem, total money.Money) {
	snap := make([]orders.LineSnapshot, 0, len(lines))
	for _, li := range lines {
		snap = append(snap, orders.LineSnapshot{
			ProductID: li.ProductID,
			Name:      li.Name,
			Price:     li.Price.String(),
			Count:     li.Count,
			Comment:   li.Comment,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCommitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: fmt.Sprintf("%d", o.ID),
		Payload: kafkax.MustMarshal(orders.OrderCommittedPayload{
			OrderID:     o.ID,
			Description: o.Description,
			CustomerID:  o.CustomerID,
			Total:       total.String(),
			Items:       snap,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCommitted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
