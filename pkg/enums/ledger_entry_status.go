package enums

import "fmt"

// LedgerEntryStatus maps to the ledger_entry_status_enum enum in Postgres.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending   LedgerEntryStatus = "pending"
	LedgerEntryStatusCompleted LedgerEntryStatus = "completed"
	LedgerEntryStatusFailed    LedgerEntryStatus = "failed"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryStatusPending,
	LedgerEntryStatusCompleted,
	LedgerEntryStatusFailed,
}

// IsValid reports whether the value matches the canonical ledger entry status enum.
func (s LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a status transition is allowed. Entries only
// ever move pending -> completed or pending -> failed.
func (s LedgerEntryStatus) CanTransitionTo(next LedgerEntryStatus) bool {
	return s == LedgerEntryStatusPending &&
		(next == LedgerEntryStatusCompleted || next == LedgerEntryStatusFailed)
}

// ParseLedgerEntryStatus converts raw input into LedgerEntryStatus.
func ParseLedgerEntryStatus(value string) (LedgerEntryStatus, error) {
	for _, candidate := range validLedgerEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry status %q", value)
}
