package order

// StatusEvent is the payload of status-update and admin-status-update
// real-time events. Seq is optional; publishers that order their events set it.
type StatusEvent struct {
	OrderID   ID     `json:"orderId"`
	Status    Status `json:"status"`
	Seq       uint64 `json:"seq,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// CreatedEvent is the payload of an order-created real-time event.
type CreatedEvent struct {
	OrderID     ID      `json:"orderId"`
	ServiceType string  `json:"serviceType,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// StatusMessage is the customer-facing notification text for a status.
func StatusMessage(s Status) string {
	switch s {
	case StatusPending:
		return "Your order is being processed"
	case StatusAssigned:
		return "Mobile unit has been assigned"
	case StatusOnWay:
		return "Mobile unit is on the way"
	case StatusWashing:
		return "Your car is being washed"
	case StatusCompleted:
		return "Service completed successfully"
	case StatusCancelled:
		return "Order has been cancelled"
	default:
		return "Order status updated to " + string(s)
	}
}
