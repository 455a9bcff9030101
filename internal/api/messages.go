package api

// Group is a shared-expense group.
type Group struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
}

// Member is a participant of a group.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Debt is one directional debt with display names.
type Debt struct {
	DebtorID     string  `json:"debtorId"`
	DebtorName   string  `json:"debtorName"`
	CreditorID   string  `json:"creditorId"`
	CreditorName string  `json:"creditorName"`
	Amount       float64 `json:"amount"`
}

// Balance is a member's position within a group.
// Positive NetBalance means the member is owed money.
type Balance struct {
	MemberID   string  `json:"memberId"`
	MemberName string  `json:"memberName"`
	NetBalance float64 `json:"netBalance"`
	Owed       float64 `json:"owed"`
	Owes       float64 `json:"owes"`
}

// Split is one member's share of a transaction.
type Split struct {
	MemberID   string  `json:"memberId"`
	MemberName string  `json:"memberName,omitempty"`
	Amount     float64 `json:"amount"`
}

// Transaction is a recorded expense or settlement.
type Transaction struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"groupId"`
	PayerID     string  `json:"payerId"`
	PayerName   string  `json:"payerName,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
	SplitPolicy string  `json:"splitPolicy"`
	Kind        string  `json:"kind"`
	CreatedAt   int64   `json:"createdAt"`
	Splits      []Split `json:"splits"`
}

// GroupSummary is a group in a listing, with the requesting member's balance.
type GroupSummary struct {
	Group   Group   `json:"group"`
	Balance float64 `json:"balance"`
}

// GroupService messages

type CreateGroupRequest struct {
	Title string `json:"title"`
	// Members are names of members to add on creation, in order.
	Members []string `json:"members,omitempty"`
}

type CreateGroupResponse struct {
	Group   Group    `json:"group"`
	Members []Member `json:"members"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
	// MemberID optionally selects whose balance to report.
	MemberID string `json:"memberId,omitempty"`
}

type GetGroupResponse struct {
	Group   Group    `json:"group"`
	Members []Member `json:"members"`
	Balance *float64 `json:"balance,omitempty"`
}

type ListGroupsRequest struct {
	// MemberID, when set, limits the listing to that member's groups and
	// fills in their balance.
	MemberID string `json:"memberId,omitempty"`
}

type ListGroupsResponse struct {
	Groups []GroupSummary `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

type AddMemberResponse struct {
	Member Member `json:"member"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"groupId"`
	MemberID string `json:"memberId"`
}

type RemoveMemberResponse struct{}

type RenameMemberRequest struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
}

type RenameMemberResponse struct {
	Member Member `json:"member"`
}

type DeleteMemberRequest struct {
	MemberID string `json:"memberId"`
}

type DeleteMemberResponse struct{}

type GetGroupDebtsRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupDebtsResponse struct {
	Debts []Debt `json:"debts"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

// TransactionService messages

type CreateTransactionRequest struct {
	GroupID     string  `json:"groupId"`
	PayerID     string  `json:"payerId"`
	TotalAmount float64 `json:"totalAmount"`
	// SplitPolicy is EQUAL, PERCENTAGE or EXACT.
	SplitPolicy string `json:"splitPolicy"`
	// Participants defaults to every group member for EQUAL splits.
	Participants []string `json:"participants,omitempty"`
	// Values holds percentages (PERCENTAGE) or amounts (EXACT) by member ID.
	Values map[string]float64 `json:"values,omitempty"`
}

type CreateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type GetTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	GroupID string `json:"groupId"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type SettleDebtRequest struct {
	GroupID      string `json:"groupId"`
	FromMemberID string `json:"fromMemberId"`
	ToMemberID   string `json:"toMemberId"`
}

type SettleDebtResponse struct {
	Transaction Transaction `json:"transaction"`
}
