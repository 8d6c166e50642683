package orders

import "strconv"

const (
	TopicOrderCommitted  = "order.committed"
	TopicInvoiceRendered = "order.invoice.rendered"
)

// Partition key = order id, so all events for one order stay ordered.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
