package models

// Group is a shared-expense group.
// A group owns its Memberships and Debts; deleting the group removes both.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Title is the display name of the group (e.g., "Roommates").
	// Required, and immutable after creation.
	Title string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is a person taking part in one or more groups.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Name is the display name. The only mutable field.
	Name string

	// CreatedAt is the Unix timestamp when the member was created.
	CreatedAt int64
}

// Membership links a member to a group. Unique per (GroupID, MemberID).
type Membership struct {
	GroupID  string
	MemberID string
	JoinedAt int64
}
