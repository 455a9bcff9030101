package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/grouptab/internal/api"
	"github.com/mmynk/grouptab/internal/events"
	"github.com/mmynk/grouptab/internal/ledger"
	"github.com/mmynk/grouptab/internal/metrics"
	"github.com/mmynk/grouptab/internal/storage/sqlite"
)

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testServer struct {
	groups    api.GroupServiceClient
	txns      api.TransactionServiceClient
	metrics   *metrics.Metrics
	publisher *recordingPublisher
}

// setupTestServer creates a test server with GroupService and
// TransactionService over a temporary SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })

	locks := ledger.NewGroupLocks()
	m := metrics.New(prometheus.NewRegistry())
	publisher := &recordingPublisher{}

	groupPath, groupHandler := api.NewGroupServiceHandler(NewGroupService(store, locks))
	txnPath, txnHandler := api.NewTransactionServiceHandler(
		NewTransactionService(store, ledger.NewRecorder(store, locks), m, publisher),
	)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(txnPath, txnHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		groups:    api.NewGroupServiceClient(http.DefaultClient, server.URL),
		txns:      api.NewTransactionServiceClient(http.DefaultClient, server.URL),
		metrics:   m,
		publisher: publisher,
	}
}

// createGroup creates a group with the named members and returns the group
// ID and member IDs in order.
func (ts *testServer) createGroup(t *testing.T, title string, names ...string) (string, []string) {
	t.Helper()
	resp, err := ts.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Title:   title,
		Members: names,
	}))
	require.NoError(t, err, "CreateGroup failed")

	ids := make([]string, len(resp.Msg.Members))
	for i, m := range resp.Msg.Members {
		ids[i] = m.ID
	}
	return resp.Msg.Group.ID, ids
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr), "expected connect error, got %v", err)
	assert.Equal(t, want, connectErr.Code(), "message: %s", connectErr.Message())
}

func TestCreateGroup(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := ts.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Title:   "Roommates",
		Members: []string{"Alice", "Bob", "Charlie"},
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Msg.Group.ID)
	assert.Equal(t, "Roommates", resp.Msg.Group.Title)
	assert.NotZero(t, resp.Msg.Group.CreatedAt)
	require.Len(t, resp.Msg.Members, 3)
	assert.Equal(t, "Alice", resp.Msg.Members[0].Name)
}

func TestCreateGroup_Validation(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	_, err := ts.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Title: "   "}))
	assertCode(t, connect.CodeInvalidArgument, err)

	_, err = ts.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Title: "Trip", Members: []string{"Alice", ""}}))
	assertCode(t, connect.CodeInvalidArgument, err)

	list, err := ts.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Groups, "rejected requests must not create groups")
}

func TestGetGroup(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Work Lunch", "Diana", "Eve")

	resp, err := ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, "Work Lunch", resp.Msg.Group.Title)
	assert.Len(t, resp.Msg.Members, 2)
	assert.Nil(t, resp.Msg.Balance)

	_, err = ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: ids[0], TotalAmount: 40, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	resp, err = ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID, MemberID: ids[1]}))
	require.NoError(t, err)
	require.NotNil(t, resp.Msg.Balance)
	assert.InDelta(t, -20.0, *resp.Msg.Balance, 0.001)

	_, err = ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID, MemberID: "stranger"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestListGroups(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	tripID, trip := ts.createGroup(t, "Trip", "Alice", "Bob")
	ts.createGroup(t, "Book Club", "Carol")

	_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: tripID, PayerID: trip[0], TotalAmount: 100, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	t.Run("all groups", func(t *testing.T) {
		resp, err := ts.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Groups, 2)
		assert.Equal(t, "Trip", resp.Msg.Groups[0].Group.Title)
	})

	t.Run("member groups with balance", func(t *testing.T) {
		resp, err := ts.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{MemberID: trip[0]}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Groups, 1)
		assert.Equal(t, tripID, resp.Msg.Groups[0].Group.ID)
		assert.InDelta(t, 50.0, resp.Msg.Groups[0].Balance, 0.001)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := ts.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{MemberID: "nonexistent-id"}))
		assertCode(t, connect.CodeNotFound, err)
	})
}

func TestDeleteGroup(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Temporary", "Alice", "Bob")

	created, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: ids[0], TotalAmount: 10, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	_, err = ts.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
	require.NoError(t, err)

	_, err = ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodeNotFound, err)
	_, err = ts.txns.GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{TransactionID: created.Msg.Transaction.ID}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = ts.groups.DeleteGroup(ctx, connect.NewRequest(&api.DeleteGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodeNotFound, err)

	// members survive without memberships and can now be deleted
	_, err = ts.groups.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: ids[1]}))
	require.NoError(t, err)
}

func TestMemberLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Flat", "Alice")
	alice := ids[0]

	added, err := ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupID: groupID, Name: "Bob"}))
	require.NoError(t, err)
	bob := added.Msg.Member.ID
	assert.Equal(t, "Bob", added.Msg.Member.Name)

	_, err = ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupID: "nonexistent-id", Name: "Ghost"}))
	assertCode(t, connect.CodeNotFound, err)
	_, err = ts.groups.AddMember(ctx, connect.NewRequest(&api.AddMemberRequest{GroupID: groupID, Name: ""}))
	assertCode(t, connect.CodeInvalidArgument, err)

	renamed, err := ts.groups.RenameMember(ctx, connect.NewRequest(&api.RenameMemberRequest{MemberID: bob, Name: "Robert"}))
	require.NoError(t, err)
	assert.Equal(t, "Robert", renamed.Msg.Member.Name)

	// Alice pays for both: Robert owes Alice
	_, err = ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: alice, TotalAmount: 30, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	t.Run("removal blocked by debts", func(t *testing.T) {
		_, err := ts.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupID: groupID, MemberID: bob}))
		assertCode(t, connect.CodeFailedPrecondition, err)
		assert.Contains(t, err.Error(), "unsettled debts")
	})

	t.Run("delete blocked by membership", func(t *testing.T) {
		_, err := ts.groups.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: bob}))
		assertCode(t, connect.CodeFailedPrecondition, err)
	})

	t.Run("remove after settling", func(t *testing.T) {
		_, err := ts.txns.SettleDebt(ctx, connect.NewRequest(&api.SettleDebtRequest{GroupID: groupID, FromMemberID: bob, ToMemberID: alice}))
		require.NoError(t, err)

		_, err = ts.groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupID: groupID, MemberID: bob}))
		require.NoError(t, err)
		_, err = ts.groups.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: bob}))
		require.NoError(t, err)

		resp, err := ts.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Members, 1)
		assert.Equal(t, alice, resp.Msg.Members[0].ID)
	})
}

func TestGetGroupDebtsAndBalances(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Trip", "Alice", "Bob", "Charlie")
	alice, bob, charlie := ids[0], ids[1], ids[2]

	_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: alice, TotalAmount: 90, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)
	_, err = ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: bob, TotalAmount: 20, SplitPolicy: "EXACT",
		Values: map[string]float64{alice: 20},
	}))
	require.NoError(t, err)

	debts, err := ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, debts.Msg.Debts, 2)
	byDebtor := make(map[string]api.Debt)
	for _, d := range debts.Msg.Debts {
		assert.Equal(t, alice, d.CreditorID)
		assert.Equal(t, "Alice", d.CreditorName)
		byDebtor[d.DebtorID] = d
	}
	assert.InDelta(t, 10.0, byDebtor[bob].Amount, 0.001)
	assert.Equal(t, "Bob", byDebtor[bob].DebtorName)
	assert.InDelta(t, 30.0, byDebtor[charlie].Amount, 0.001)

	balances, err := ts.groups.GetGroupBalances(ctx, connect.NewRequest(&api.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Balances, 3)
	sum := 0.0
	for _, b := range balances.Msg.Balances {
		sum += b.NetBalance
	}
	assert.InDelta(t, 0.0, sum, 0.001)
	assert.InDelta(t, 40.0, balances.Msg.Balances[0].NetBalance, 0.001)
	assert.InDelta(t, 40.0, balances.Msg.Balances[0].Owed, 0.001)
	assert.InDelta(t, -10.0, balances.Msg.Balances[1].NetBalance, 0.001)
	assert.InDelta(t, -30.0, balances.Msg.Balances[2].NetBalance, 0.001)

	_, err = ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)
}
