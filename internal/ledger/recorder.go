package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
)

// Store is the part of the persistent store the ledger needs.
type Store interface {
	// LoadDebts returns every debt of the group.
	LoadDebts(ctx context.Context, groupID string) ([]models.Debt, error)

	// LoadMembers returns the members of a group.
	LoadMembers(ctx context.Context, groupID string) ([]models.Member, error)

	// RecordTransaction appends txn (assigning ID and CreatedAt) and commits
	// changes in one atomic write.
	RecordTransaction(ctx context.Context, txn *models.Transaction, changes models.DebtChanges) error
}

// Recorder runs ledger updates against a store. For each group it holds the
// group lock across load, apply and commit, so two transactions of the same
// group never work from the same debt snapshot.
type Recorder struct {
	store Store
	locks *GroupLocks
}

// NewRecorder creates a Recorder. Recorders sharing a store must share locks.
func NewRecorder(store Store, locks *GroupLocks) *Recorder {
	return &Recorder{store: store, locks: locks}
}

// Record appends an expense transaction and applies its splits to the
// group's debts. Either both are persisted or neither is. The payer and every
// split member must belong to the group when the lock is taken.
func (r *Recorder) Record(ctx context.Context, txn *models.Transaction) (models.DebtChanges, error) {
	txn.Kind = models.KindExpense

	unlock, err := r.locks.Lock(ctx, txn.GroupID)
	if err != nil {
		return models.DebtChanges{}, fmt.Errorf("failed to lock group %s: %w", txn.GroupID, err)
	}
	defer unlock()

	if err := r.checkMembers(ctx, txn); err != nil {
		return models.DebtChanges{}, err
	}

	debts, err := r.store.LoadDebts(ctx, txn.GroupID)
	if err != nil {
		return models.DebtChanges{}, errs.Storage(err, "failed to load debts")
	}

	l := New(txn.GroupID, debts)
	l.Apply(txn.PayerID, txn.Splits)
	changes := l.Changes()

	if err := r.store.RecordTransaction(ctx, txn, changes); err != nil {
		return models.DebtChanges{}, errs.Storage(err, "failed to record transaction")
	}

	slog.Debug("Ledger updated",
		"group_id", txn.GroupID,
		"transaction_id", txn.ID,
		"upserts", len(changes.Upserts),
		"deletes", len(changes.Deletes),
	)
	return changes, nil
}

// checkMembers rejects txn if its payer or a split member has left the group.
// It must run under the group lock; membership removal takes the same lock.
func (r *Recorder) checkMembers(ctx context.Context, txn *models.Transaction) error {
	members, err := r.store.LoadMembers(ctx, txn.GroupID)
	if err != nil {
		return errs.Storage(err, "failed to load members")
	}
	inGroup := make(map[string]bool, len(members))
	for _, m := range members {
		inGroup[m.ID] = true
	}

	if !inGroup[txn.PayerID] {
		return errs.NotFoundf("payer %s is not a member of group %s", txn.PayerID, txn.GroupID)
	}
	for _, sp := range txn.Splits {
		if !inGroup[sp.MemberID] {
			return errs.Validationf("participant %s is not a member of the group", sp.MemberID)
		}
	}
	return nil
}

// Settle removes the debt from -> to and records a settlement transaction
// (payer = from, one exact split to `to` for the full amount). The settlement
// is history only; it is not applied through the ledger.
func (r *Recorder) Settle(ctx context.Context, groupID, fromID, toID string) (*models.Transaction, error) {
	unlock, err := r.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock group %s: %w", groupID, err)
	}
	defer unlock()

	debts, err := r.store.LoadDebts(ctx, groupID)
	if err != nil {
		return nil, errs.Storage(err, "failed to load debts")
	}

	l := New(groupID, debts)
	debt, err := l.Settle(fromID, toID)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		GroupID:     groupID,
		PayerID:     fromID,
		TotalAmount: debt.Amount,
		SplitPolicy: models.SplitExact,
		Kind:        models.KindSettlement,
		Splits:      []models.Split{{MemberID: toID, Amount: debt.Amount}},
	}
	if err := r.store.RecordTransaction(ctx, txn, l.Changes()); err != nil {
		return nil, errs.Storage(err, "failed to record settlement")
	}

	slog.Debug("Debt settled",
		"group_id", groupID,
		"from", fromID,
		"to", toID,
		"amount", debt.Amount,
		"transaction_id", txn.ID,
	)
	return txn, nil
}
