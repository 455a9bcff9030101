package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/grouptab/internal/models"
)

// LoadDebts returns every debt of the group.
func (s *SQLiteStore) LoadDebts(ctx context.Context, groupID string) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id, debtor_id, creditor_id, amount FROM debts WHERE group_id = ? ORDER BY debtor_id, creditor_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load debts: %w", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.GroupID, &d.DebtorID, &d.CreditorID, &d.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}

// CommitDebtChanges applies a debt batch in one database transaction.
func (s *SQLiteStore) CommitDebtChanges(ctx context.Context, groupID string, changes models.DebtChanges) error {
	if changes.IsEmpty() {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return commitDebtChanges(ctx, tx, groupID, changes)
	})
}

func commitDebtChanges(ctx context.Context, tx *sql.Tx, groupID string, changes models.DebtChanges) error {
	for _, k := range changes.Deletes {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM debts WHERE group_id = ? AND debtor_id = ? AND creditor_id = ?",
			groupID, k.DebtorID, k.CreditorID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete debt: %w", err)
		}
	}

	for _, d := range changes.Upserts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO debts (group_id, debtor_id, creditor_id, amount) VALUES (?, ?, ?, ?)
			ON CONFLICT (group_id, debtor_id, creditor_id) DO UPDATE SET amount = excluded.amount`,
			groupID, d.DebtorID, d.CreditorID, d.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert debt: %w", err)
		}
	}
	return nil
}
