package models

// DebtKey identifies a directional debt inside one group.
type DebtKey struct {
	DebtorID   string
	CreditorID string
}

// Reverse returns the key for the opposite direction.
func (k DebtKey) Reverse() DebtKey {
	return DebtKey{DebtorID: k.CreditorID, CreditorID: k.DebtorID}
}

// Debt is the net amount DebtorID owes CreditorID inside GroupID.
//
// At most one Debt exists per unordered member pair in a group, and Amount is
// always strictly positive while the record exists.
type Debt struct {
	GroupID    string
	DebtorID   string
	CreditorID string
	Amount     float64
}

// Key returns the directional key of the debt.
func (d Debt) Key() DebtKey {
	return DebtKey{DebtorID: d.DebtorID, CreditorID: d.CreditorID}
}

// DebtChanges is a batch of debt mutations for one group, committed atomically.
type DebtChanges struct {
	// Upserts are debts to insert or overwrite.
	Upserts []Debt

	// Deletes are debts to remove.
	Deletes []DebtKey
}

// IsEmpty reports whether the batch has nothing to commit.
func (c DebtChanges) IsEmpty() bool {
	return len(c.Upserts) == 0 && len(c.Deletes) == 0
}
