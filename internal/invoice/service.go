package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/yzzyx/invoice/internal/customers"
	kafkax "github.com/yzzyx/invoice/internal/kafka"
	"github.com/yzzyx/invoice/internal/orders"
	"github.com/yzzyx/invoice/internal/redisx"
)

// Service turns committed orders into invoice files. It consumes
// order.committed, renders, records the file name on the order and
// advances its status. Rendering reads the committed rows back from
// storage, not the event payload — the schema is the contract.
type Service struct {
	Orders      *orders.Repo
	Customers   *customers.Repo
	Renderer    *Renderer
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes invoice.rendered
	ServiceName string
}

// HandleOrderCommitted is the consumer handler. Errors return the
// message for retry; the Redis dedup key makes retries safe.
func (s *Service) HandleOrderCommitted(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCommitted {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "invoiced", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCommittedPayload](env.Payload)
	if err != nil {
		return err
	}

	o, err := s.Orders.Get(ctx, p.OrderID)
	if err != nil {
		return err
	}

	// Re-delivered commits for an already invoiced order just republish.
	if o.InvoiceFile != "" {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		s.publishRendered(o.ID, o.InvoiceFile, env.TraceID)
		return nil
	}

	c, err := s.Customers.Get(ctx, o.CustomerID)
	if err != nil {
		return err
	}
	items, err := s.Orders.LineItems(ctx, o.ID)
	if err != nil {
		return err
	}

	file, err := s.Renderer.Render(o, c, items)
	if err != nil {
		return err
	}

	status := o.Status
	if status == orders.StatusNew {
		status = orders.StatusOngoing
	}
	if err := s.Orders.SetInvoiceFile(ctx, o.ID, file, status); err != nil {
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	s.cacheStatus(ctx, o.ID, status, file)
	s.publishRendered(o.ID, file, env.TraceID)

	log.Info().Int64("order_id", o.ID).Str("file", file).Msg("invoice rendered")
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID int64, status orders.Status, file string) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"status": status, "invoice_file": file})
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (s *Service) publishRendered(orderID int64, file, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventInvoiceRendered,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: fmt.Sprintf("%d", orderID),
		Payload: kafkax.MustMarshal(orders.InvoiceRenderedPayload{
			OrderID:     orderID,
			InvoiceFile: file,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventInvoiceRendered)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
