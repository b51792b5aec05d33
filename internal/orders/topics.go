package orders

const (
	TopicGuestOrderCreated = "order.guest.created"
)

// Partition key = order_id, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
