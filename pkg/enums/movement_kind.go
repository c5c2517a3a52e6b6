package enums

import "fmt"

// MovementKind classifies a stock movement row.
type MovementKind string

const (
	// MovementSale is an outbound movement registered at finalize time.
	MovementSale MovementKind = "saida_venda"
	// MovementReservationPick converts a held reservation into a physical
	// outbound movement.
	MovementReservationPick MovementKind = "baixa_reserva"
	// MovementConsignmentReturn restores stock when consigned goods come back.
	MovementConsignmentReturn MovementKind = "estorno_consignacao"
	// MovementAdjustment is a manual correction outside the sales flow.
	MovementAdjustment MovementKind = "ajuste"
)

var validMovementKinds = []MovementKind{
	MovementSale,
	MovementReservationPick,
	MovementConsignmentReturn,
	MovementAdjustment,
}

// String implements fmt.Stringer.
func (k MovementKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known MovementKind.
func (k MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseMovementKind converts raw input into a MovementKind.
func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
