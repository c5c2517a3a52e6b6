package enums

import "fmt"

// LedgerEntryKind classifies a bookkeeping entry.
type LedgerEntryKind string

const (
	LedgerSale               LedgerEntryKind = "venda"
	LedgerConsignmentOpened  LedgerEntryKind = "consignacao_aberta"
	LedgerConsignmentSettled LedgerEntryKind = "consignacao_liquidada"
	LedgerReversal           LedgerEntryKind = "estorno"
)

var validLedgerEntryKinds = []LedgerEntryKind{
	LedgerSale,
	LedgerConsignmentOpened,
	LedgerConsignmentSettled,
	LedgerReversal,
}

// String implements fmt.Stringer.
func (k LedgerEntryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known LedgerEntryKind.
func (k LedgerEntryKind) IsValid() bool {
	for _, candidate := range validLedgerEntryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLedgerEntryKind converts raw input into a LedgerEntryKind.
func ParseLedgerEntryKind(value string) (LedgerEntryKind, error) {
	for _, candidate := range validLedgerEntryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry kind %q", value)
}
