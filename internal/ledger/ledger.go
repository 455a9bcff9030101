// Package ledger maintains the pairwise debt set of a group.
//
// A Ledger is loaded from the stored debts of one group, mutated in memory by
// Apply and Settle, and then asked for the resulting DebtChanges batch, which
// the store commits atomically. Amounts are kept as decimals rounded to the
// cent so that netting never leaves floating-point residue.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
)

// Ledger is the in-memory debt set of one group. Not safe for concurrent use;
// callers serialize access per group with GroupLocks.
type Ledger struct {
	groupID string
	debts   map[models.DebtKey]decimal.Decimal
	touched map[models.DebtKey]struct{}
}

// New builds a ledger from the group's current debts.
// Non-positive amounts are dropped.
func New(groupID string, debts []models.Debt) *Ledger {
	l := &Ledger{
		groupID: groupID,
		debts:   make(map[models.DebtKey]decimal.Decimal, len(debts)),
		touched: make(map[models.DebtKey]struct{}),
	}
	for _, d := range debts {
		amount := cents(d.Amount)
		if amount.IsPositive() {
			l.debts[d.Key()] = amount
		}
	}
	return l
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).RoundBank(2)
}

// Apply folds one transaction into the ledger. Each split other than the
// payer's own records that the member owes the payer the split amount:
//
//   - if the payer already owes the member, that reverse debt is reduced,
//     removed, or flipped into a forward debt for the remainder
//   - otherwise the member's existing debt to the payer grows, or is created
//
// Splits are independent of each other, so their order does not matter.
func (l *Ledger) Apply(payerID string, splits []models.Split) {
	for _, s := range splits {
		if s.MemberID == payerID {
			continue
		}
		amount := cents(s.Amount)
		if !amount.IsPositive() {
			continue
		}

		forward := models.DebtKey{DebtorID: s.MemberID, CreditorID: payerID}
		reverse := forward.Reverse()

		if owed, ok := l.debts[reverse]; ok {
			switch owed.Cmp(amount) {
			case 1:
				l.set(reverse, owed.Sub(amount))
			case -1:
				l.remove(reverse)
				l.set(forward, amount.Sub(owed))
			default:
				l.remove(reverse)
			}
			continue
		}

		if existing, ok := l.debts[forward]; ok {
			l.set(forward, existing.Add(amount))
			continue
		}
		l.set(forward, amount)
	}
}

// Settle removes the debt from -> to and returns it.
// It fails with errs.ErrNotFound when the debt does not exist.
func (l *Ledger) Settle(fromID, toID string) (models.Debt, error) {
	key := models.DebtKey{DebtorID: fromID, CreditorID: toID}
	amount, ok := l.debts[key]
	if !ok || !amount.IsPositive() {
		return models.Debt{}, errs.NotFoundf("debt not found or already settled")
	}
	l.remove(key)
	return l.debt(key, amount), nil
}

// Amount returns what debtor owes creditor, or 0.
func (l *Ledger) Amount(debtorID, creditorID string) float64 {
	return l.debts[models.DebtKey{DebtorID: debtorID, CreditorID: creditorID}].InexactFloat64()
}

// Debts returns the current debt set, ordered by debtor then creditor.
func (l *Ledger) Debts() []models.Debt {
	keys := make([]models.DebtKey, 0, len(l.debts))
	for k := range l.debts {
		keys = append(keys, k)
	}
	sortKeys(keys)

	debts := make([]models.Debt, len(keys))
	for i, k := range keys {
		debts[i] = l.debt(k, l.debts[k])
	}
	return debts
}

// Changes returns the upserts and deletes needed to bring the stored debt set
// in line with the ledger, covering every key touched since New.
func (l *Ledger) Changes() models.DebtChanges {
	keys := make([]models.DebtKey, 0, len(l.touched))
	for k := range l.touched {
		keys = append(keys, k)
	}
	sortKeys(keys)

	var changes models.DebtChanges
	for _, k := range keys {
		if amount, ok := l.debts[k]; ok {
			changes.Upserts = append(changes.Upserts, l.debt(k, amount))
		} else {
			changes.Deletes = append(changes.Deletes, k)
		}
	}
	return changes
}

func (l *Ledger) set(k models.DebtKey, amount decimal.Decimal) {
	l.debts[k] = amount
	l.touched[k] = struct{}{}
}

func (l *Ledger) remove(k models.DebtKey) {
	delete(l.debts, k)
	l.touched[k] = struct{}{}
}

func (l *Ledger) debt(k models.DebtKey, amount decimal.Decimal) models.Debt {
	return models.Debt{
		GroupID:    l.groupID,
		DebtorID:   k.DebtorID,
		CreditorID: k.CreditorID,
		Amount:     amount.InexactFloat64(),
	}
}

func sortKeys(keys []models.DebtKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DebtorID != keys[j].DebtorID {
			return keys[i].DebtorID < keys[j].DebtorID
		}
		return keys[i].CreditorID < keys[j].CreditorID
	})
}
