// Package models defines the core domain records for GroupTab.
//
// # Records
//
//   - Member: a person who can belong to groups
//   - Group: a shared-expense group, owning its memberships and debts
//   - Membership: a member's participation in one group
//   - Debt: a directional amount owed from one member to another inside a group
//   - Transaction: an immutable payment record with its Splits
//
// # Design Principles
//
// 1. **Records by id**: relationships are ID strings, never pointers, so there are
// no back-references or cyclic graphs. Related records are loaded explicitly.
// 2. **Derived debts**: Debts are a continuously updated aggregate maintained by
// the ledger, not a replay of the transaction log.
// 3. **Append-only history**: Transactions are created once and never mutated.
package models
