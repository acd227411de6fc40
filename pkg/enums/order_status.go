package enums

import "fmt"

// OrderStatus tracks the lifecycle of a store order.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusChargeback OrderStatus = "chargeback"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusProcessing,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
	OrderStatusRefunded,
	OrderStatusChargeback,
}

// orderStatusNext is the seller-facing progression. Terminal statuses are
// entered through payment reconciliation only, never through the funnel.
var orderStatusNext = map[OrderStatus]OrderStatus{
	OrderStatusCreated:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusPaid,
	OrderStatusPaid:       OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status closes the order for good.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusDelivered, OrderStatusCanceled, OrderStatusRefunded, OrderStatusChargeback:
		return true
	}
	return false
}

// Next returns the funnel successor for the status. Statuses outside the
// funnel (terminal or payment-driven) have no successor.
func (o OrderStatus) Next() (OrderStatus, bool) {
	next, ok := orderStatusNext[o]
	return next, ok
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
