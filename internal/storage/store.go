// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/grouptab/internal/models"
)

// Store defines the persistence operations GroupTab needs.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the ledger or the service layer.
//
// Missing records are reported with errs.ErrNotFound, blocked deletions with
// errs.ErrConflict.
type Store interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by its ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups, oldest first.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group with its memberships, debts and transactions.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember creates the member and its membership in the group atomically.
	// ID and CreatedAt are populated by the store.
	AddMember(ctx context.Context, groupID string, member *models.Member) error

	// GetMember retrieves a member by ID.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// GetMembersByIDs returns the members that exist among ids, keyed by ID.
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)

	// RenameMember changes a member's display name.
	RenameMember(ctx context.Context, memberID, name string) error

	// DeleteMember removes a member that belongs to no group.
	DeleteMember(ctx context.Context, memberID string) error

	// LoadMembers returns the members of a group ordered by join time.
	LoadMembers(ctx context.Context, groupID string) ([]models.Member, error)

	// RemoveMembership removes a member from a group. It fails with a conflict
	// while the member has outstanding debts in that group.
	RemoveMembership(ctx context.Context, groupID, memberID string) error

	// LoadDebts returns every debt of the group.
	LoadDebts(ctx context.Context, groupID string) ([]models.Debt, error)

	// CommitDebtChanges applies a debt batch atomically.
	CommitDebtChanges(ctx context.Context, groupID string, changes models.DebtChanges) error

	// AppendTransaction persists a transaction with its splits.
	// ID and CreatedAt are populated by the store.
	AppendTransaction(ctx context.Context, txn *models.Transaction) error

	// RecordTransaction appends txn and commits changes in one atomic write.
	RecordTransaction(ctx context.Context, txn *models.Transaction, changes models.DebtChanges) error

	// GetTransaction retrieves a transaction with its splits.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListTransactions retrieves the group's transactions, newest first.
	ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error)

	// Close releases any resources held by the store.
	Close() error
}
