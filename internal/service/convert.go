package service

import (
	"github.com/mmynk/grouptab/internal/api"
	"github.com/mmynk/grouptab/internal/calculator"
	"github.com/mmynk/grouptab/internal/models"
)

func toAPIGroup(g *models.Group) api.Group {
	return api.Group{ID: g.ID, Title: g.Title, CreatedAt: g.CreatedAt}
}

func toAPIMember(m models.Member) api.Member {
	return api.Member{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func toAPIMembers(members []models.Member) []api.Member {
	out := make([]api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return out
}

func toAPIBalances(balances []calculator.MemberBalance) []api.Balance {
	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{
			MemberID:   b.MemberID,
			MemberName: b.MemberName,
			NetBalance: b.NetBalance,
			Owed:       b.Owed,
			Owes:       b.Owes,
		}
	}
	return out
}

// toAPITransaction converts txn, looking up display names in names.
// Members missing from names (e.g. since deleted) are left unnamed.
func toAPITransaction(txn *models.Transaction, names map[string]string) api.Transaction {
	splits := make([]api.Split, len(txn.Splits))
	for i, s := range txn.Splits {
		splits[i] = api.Split{
			MemberID:   s.MemberID,
			MemberName: names[s.MemberID],
			Amount:     s.Amount,
		}
	}
	return api.Transaction{
		ID:          txn.ID,
		GroupID:     txn.GroupID,
		PayerID:     txn.PayerID,
		PayerName:   names[txn.PayerID],
		TotalAmount: txn.TotalAmount,
		SplitPolicy: string(txn.SplitPolicy),
		Kind:        string(txn.Kind),
		CreatedAt:   txn.CreatedAt,
		Splits:      splits,
	}
}

// memberIDs collects the payer and split members of txns, without duplicates.
func memberIDs(txns ...*models.Transaction) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, txn := range txns {
		add(txn.PayerID)
		for _, s := range txn.Splits {
			add(s.MemberID)
		}
	}
	return ids
}
