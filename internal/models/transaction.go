package models

import (
	"fmt"
	"strings"
)

// SplitPolicy is the rule used to divide a transaction's total among participants.
type SplitPolicy string

const (
	SplitEqual      SplitPolicy = "EQUAL"
	SplitPercentage SplitPolicy = "PERCENTAGE"
	SplitExact      SplitPolicy = "EXACT"
)

// ParseSplitPolicy converts a case-insensitive policy name.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(strings.ToUpper(strings.TrimSpace(s))); p {
	case SplitEqual, SplitPercentage, SplitExact:
		return p, nil
	default:
		return "", fmt.Errorf("unknown split policy %q", s)
	}
}

// TransactionKind distinguishes expenses from settlement records.
type TransactionKind string

const (
	// KindExpense is a payment that was applied to the debt ledger.
	KindExpense TransactionKind = "expense"

	// KindSettlement records a settled debt. It is history only and is never
	// replayed through the ledger.
	KindSettlement TransactionKind = "settlement"
)

// Transaction is an immutable record of a payment inside a group.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	// Assigned by the store.
	ID string

	GroupID string

	// PayerID is the member who paid TotalAmount.
	PayerID string

	TotalAmount float64
	SplitPolicy SplitPolicy
	Kind        TransactionKind

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64

	// Splits are the per-member shares. They sum to TotalAmount within 0.01,
	// except for equal splits where rounding remainders are not redistributed.
	Splits []Split
}

// Split is the amount one member owes from one transaction.
type Split struct {
	TransactionID string
	MemberID      string
	Amount        float64
}
