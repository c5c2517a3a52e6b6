package enums

import "fmt"

// OrderStatus is the lifecycle of a finalized order.
type OrderStatus string

const (
	// OrderStatusConfirmed is the terminal state of a movement_now sale.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusReserved marks a reserve_only order whose physical
	// movement has not been registered yet.
	OrderStatusReserved OrderStatus = "reserved"
	// OrderStatusConsignmentOpen marks a consignment awaiting the
	// customer's decision within the response deadline.
	OrderStatusConsignmentOpen     OrderStatus = "consignment_open"
	OrderStatusConsignmentSettled  OrderStatus = "consignment_settled"
	OrderStatusConsignmentReturned OrderStatus = "consignment_returned"
	OrderStatusConsignmentExpired  OrderStatus = "consignment_expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusReserved,
	OrderStatusConsignmentOpen,
	OrderStatusConsignmentSettled,
	OrderStatusConsignmentReturned,
	OrderStatusConsignmentExpired,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
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
