package enums

// OrderStatus tracks the lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}
