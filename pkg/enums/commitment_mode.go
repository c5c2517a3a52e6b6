package enums

import "fmt"

// CommitmentMode selects how stock is committed when a cart is finalized:
// register the outbound movement immediately, or hold a reservation whose
// physical pick happens later.
type CommitmentMode string

const (
	CommitmentMovementNow CommitmentMode = "movement_now"
	CommitmentReserveOnly CommitmentMode = "reserve_only"
)

var validCommitmentModes = []CommitmentMode{
	CommitmentMovementNow,
	CommitmentReserveOnly,
}

// String implements fmt.Stringer.
func (m CommitmentMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known CommitmentMode.
func (m CommitmentMode) IsValid() bool {
	for _, candidate := range validCommitmentModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCommitmentMode converts raw input into a CommitmentMode.
func ParseCommitmentMode(value string) (CommitmentMode, error) {
	for _, candidate := range validCommitmentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commitment mode %q", value)
}
