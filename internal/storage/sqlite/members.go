package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
)

// AddMember inserts a new member and its membership in the group.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID string, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupExists(ctx, tx, groupID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO members (id, name, created_at) VALUES (?, ?, ?)",
			member.ID, member.Name, member.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_memberships (group_id, member_id, joined_at) VALUES (?, ?, ?)",
			groupID, member.ID, member.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}
		return nil
	})
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM members WHERE id = ?",
		memberID,
	).Scan(&member.ID, &member.Name, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("member not found: %s", memberID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// GetMembersByIDs retrieves multiple members by their IDs.
// Returns a map of member ID to Member object.
// Members that don't exist are omitted from the result.
func (s *SQLiteStore) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	if len(ids) == 0 {
		return make(map[string]*models.Member), nil
	}

	// Build the IN clause with placeholders
	query := `
		SELECT id, name, created_at
		FROM members
		WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get members by IDs: %w", err)
	}
	defer rows.Close()

	members := make(map[string]*models.Member)
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.ID, &member.Name, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[member.ID] = member
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// RenameMember updates a member's display name.
func (s *SQLiteStore) RenameMember(ctx context.Context, memberID, name string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE members SET name = ? WHERE id = ?", name, memberID)
	if err != nil {
		return fmt.Errorf("failed to rename member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check renamed member: %w", err)
	}
	if n == 0 {
		return errs.NotFoundf("member not found: %s", memberID)
	}
	return nil
}

// DeleteMember removes a member that has no group memberships.
func (s *SQLiteStore) DeleteMember(ctx context.Context, memberID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM members WHERE id = ?", memberID).Scan(&exists)
		if err == sql.ErrNoRows {
			return errs.NotFoundf("member not found: %s", memberID)
		}
		if err != nil {
			return fmt.Errorf("failed to check member existence: %w", err)
		}

		var memberships int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM group_memberships WHERE member_id = ?", memberID,
		).Scan(&memberships)
		if err != nil {
			return fmt.Errorf("failed to count memberships: %w", err)
		}
		if memberships > 0 {
			return errs.Conflictf("member still belongs to %d group(s)", memberships)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id = ?", memberID); err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return nil
	})
}

// LoadMembers returns the members of a group ordered by join time.
func (s *SQLiteStore) LoadMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.created_at
		FROM group_memberships gm
		JOIN members m ON m.id = gm.member_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at, gm.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// RemoveMembership deletes a membership once the member has no debts in the group.
func (s *SQLiteStore) RemoveMembership(ctx context.Context, groupID, memberID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM group_memberships WHERE group_id = ? AND member_id = ?",
			groupID, memberID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return errs.NotFoundf("member %s is not in group %s", memberID, groupID)
		}
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		var debts int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM debts
			WHERE group_id = ? AND (debtor_id = ? OR creditor_id = ?) AND amount > 0`,
			groupID, memberID, memberID,
		).Scan(&debts)
		if err != nil {
			return fmt.Errorf("failed to count debts: %w", err)
		}
		if debts > 0 {
			return errs.Conflictf("member cannot be removed: they have unsettled debts")
		}

		_, err = tx.ExecContext(ctx,
			"DELETE FROM group_memberships WHERE group_id = ? AND member_id = ?",
			groupID, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		return nil
	})
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
