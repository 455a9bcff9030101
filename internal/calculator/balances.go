package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/grouptab/internal/models"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	MemberName string
	NetBalance float64 // Positive = owed money, Negative = owes money
	Owed       float64 // Total others owe this member
	Owes       float64 // Total this member owes others
}

// NetBalance returns the member's net position across debts:
// amounts where the member is creditor count positive, amounts where the
// member is debtor count negative. A member with no debts has balance 0.
func NetBalance(memberID string, debts []models.Debt) float64 {
	owed, owes := totals(memberID, debts)
	return owed.Sub(owes).InexactFloat64()
}

// GroupBalances computes one MemberBalance per member, in member order.
// When debts only reference the given members, the net balances sum to zero.
func GroupBalances(members []models.Member, debts []models.Debt) []MemberBalance {
	balances := make([]MemberBalance, len(members))
	for i, m := range members {
		owed, owes := totals(m.ID, debts)
		balances[i] = MemberBalance{
			MemberID:   m.ID,
			MemberName: m.Name,
			NetBalance: owed.Sub(owes).InexactFloat64(),
			Owed:       owed.InexactFloat64(),
			Owes:       owes.InexactFloat64(),
		}
	}
	return balances
}

func totals(memberID string, debts []models.Debt) (owed, owes decimal.Decimal) {
	for _, d := range debts {
		switch memberID {
		case d.CreditorID:
			owed = owed.Add(decimal.NewFromFloat(d.Amount))
		case d.DebtorID:
			owes = owes.Add(decimal.NewFromFloat(d.Amount))
		}
	}
	return owed, owes
}
