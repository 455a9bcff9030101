package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
)

// AppendTransaction persists a transaction and its splits.
func (s *SQLiteStore) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return appendTransaction(ctx, tx, txn)
	})
}

// RecordTransaction appends txn and commits the debt batch in one database transaction.
func (s *SQLiteStore) RecordTransaction(ctx context.Context, txn *models.Transaction, changes models.DebtChanges) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := appendTransaction(ctx, tx, txn); err != nil {
			return err
		}
		return commitDebtChanges(ctx, tx, txn.GroupID, changes)
	})
}

func appendTransaction(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	if txn.Kind == "" {
		txn.Kind = models.KindExpense
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, group_id, payer_id, total_amount, split_policy, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.GroupID, txn.PayerID, txn.TotalAmount, string(txn.SplitPolicy), string(txn.Kind), txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i := range txn.Splits {
		split := &txn.Splits[i]
		split.TransactionID = txn.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transaction_splits (transaction_id, member_id, amount) VALUES (?, ?, ?)",
			txn.ID, split.MemberID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetTransaction retrieves a transaction by ID, including its splits.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var policy, kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, payer_id, total_amount, split_policy, kind, created_at
		FROM transactions WHERE id = ?`,
		transactionID,
	).Scan(&txn.ID, &txn.GroupID, &txn.PayerID, &txn.TotalAmount, &policy, &kind, &txn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("transaction not found: %s", transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.SplitPolicy = models.SplitPolicy(policy)
	txn.Kind = models.TransactionKind(kind)

	rows, err := s.db.QueryContext(ctx,
		"SELECT transaction_id, member_id, amount FROM transaction_splits WHERE transaction_id = ? ORDER BY rowid",
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.TransactionID, &split.MemberID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		txn.Splits = append(txn.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return txn, nil
}

// ListTransactions retrieves the group's transactions with their splits, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, payer_id, total_amount, split_policy, kind, created_at
		FROM transactions WHERE group_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	byID := make(map[string]*models.Transaction)
	for rows.Next() {
		txn := &models.Transaction{}
		var policy, kind string
		if err := rows.Scan(&txn.ID, &txn.GroupID, &txn.PayerID, &txn.TotalAmount, &policy, &kind, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.SplitPolicy = models.SplitPolicy(policy)
		txn.Kind = models.TransactionKind(kind)
		txns = append(txns, txn)
		byID[txn.ID] = txn
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	rows.Close()

	splitRows, err := s.db.QueryContext(ctx, `
		SELECT s.transaction_id, s.member_id, s.amount
		FROM transaction_splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE t.group_id = ?
		ORDER BY s.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var split models.Split
		if err := splitRows.Scan(&split.TransactionID, &split.MemberID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if txn, ok := byID[split.TransactionID]; ok {
			txn.Splits = append(txn.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return txns, nil
}
