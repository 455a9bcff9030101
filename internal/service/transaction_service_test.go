package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/grouptab/internal/api"
	"github.com/mmynk/grouptab/internal/events"
	"github.com/mmynk/grouptab/internal/ledger"
	"github.com/mmynk/grouptab/internal/metrics"
	"github.com/mmynk/grouptab/internal/models"
	"github.com/mmynk/grouptab/internal/storage/memory"
)

func TestCreateTransaction_AliceBob(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Dinner", "Alice", "Bob")
	alice, bob := ids[0], ids[1]

	first, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: alice, TotalAmount: 100, SplitPolicy: "EQUAL",
		Participants: []string{alice, bob},
	}))
	require.NoError(t, err)

	txn := first.Msg.Transaction
	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, "Alice", txn.PayerName)
	assert.Equal(t, string(models.SplitEqual), txn.SplitPolicy)
	assert.Equal(t, string(models.KindExpense), txn.Kind)
	require.Len(t, txn.Splits, 2)
	assert.Equal(t, 50.0, txn.Splits[1].Amount)

	_, err = ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: bob, TotalAmount: 30, SplitPolicy: "equal",
		Participants: []string{bob, alice},
	}))
	require.NoError(t, err)

	debts, err := ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, debts.Msg.Debts, 1)
	d := debts.Msg.Debts[0]
	assert.Equal(t, bob, d.DebtorID)
	assert.Equal(t, alice, d.CreditorID)
	assert.Equal(t, 35.0, d.Amount)
}

func TestCreateTransaction_Policies(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Trip", "Alice", "Bob", "Charlie")
	alice, bob, charlie := ids[0], ids[1], ids[2]

	tests := []struct {
		name     string
		req      *api.CreateTransactionRequest
		expected map[string]float64
	}{
		{
			name:     "equal defaults to every member",
			req:      &api.CreateTransactionRequest{TotalAmount: 10, SplitPolicy: "EQUAL"},
			expected: map[string]float64{alice: 3.33, bob: 3.33, charlie: 3.33},
		},
		{
			name: "percentage",
			req: &api.CreateTransactionRequest{TotalAmount: 200, SplitPolicy: "PERCENTAGE",
				Values: map[string]float64{alice: 50, bob: 30, charlie: 20}},
			expected: map[string]float64{alice: 100, bob: 60, charlie: 40},
		},
		{
			name: "exact with explicit participants",
			req: &api.CreateTransactionRequest{TotalAmount: 45.5, SplitPolicy: "EXACT",
				Participants: []string{bob, charlie},
				Values:       map[string]float64{bob: 25.5, charlie: 20}},
			expected: map[string]float64{bob: 25.5, charlie: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.GroupID = groupID
			tt.req.PayerID = alice

			resp, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(tt.req))
			require.NoError(t, err)

			got := make(map[string]float64)
			for _, s := range resp.Msg.Transaction.Splits {
				got[s.MemberID] = s.Amount
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("splits: expected %d, got %d", len(tt.expected), len(got))
			}
			for id, want := range tt.expected {
				if math.Abs(got[id]-want) > 0.01 {
					t.Errorf("share for %s: expected %.2f, got %.2f", id, want, got[id])
				}
			}
		})
	}
}

func TestCreateTransaction_Rejections(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Trip", "Alice", "Bob")
	alice, bob := ids[0], ids[1]

	tests := []struct {
		name    string
		req     *api.CreateTransactionRequest
		code    connect.Code
		message string
	}{
		{
			name: "percentages not adding up",
			req: &api.CreateTransactionRequest{GroupID: groupID, PayerID: alice, TotalAmount: 100, SplitPolicy: "PERCENTAGE",
				Values: map[string]float64{alice: 40, bob: 50}},
			code:    connect.CodeInvalidArgument,
			message: "percentages must add up to 100",
		},
		{
			name: "exact not matching total",
			req: &api.CreateTransactionRequest{GroupID: groupID, PayerID: alice, TotalAmount: 100, SplitPolicy: "EXACT",
				Values: map[string]float64{alice: 40, bob: 50}},
			code:    connect.CodeInvalidArgument,
			message: "split amounts must match total",
		},
		{
			name:    "unknown policy",
			req:     &api.CreateTransactionRequest{GroupID: groupID, PayerID: alice, TotalAmount: 100, SplitPolicy: "SHARES"},
			code:    connect.CodeInvalidArgument,
			message: "invalid split type",
		},
		{
			name:    "non-positive total",
			req:     &api.CreateTransactionRequest{GroupID: groupID, PayerID: alice, TotalAmount: 0, SplitPolicy: "EQUAL"},
			code:    connect.CodeInvalidArgument,
			message: "total amount must be positive",
		},
		{
			name: "participant outside the group",
			req: &api.CreateTransactionRequest{GroupID: groupID, PayerID: alice, TotalAmount: 10, SplitPolicy: "EQUAL",
				Participants: []string{alice, "stranger"}},
			code: connect.CodeInvalidArgument,
		},
		{
			name:    "payer outside the group",
			req:     &api.CreateTransactionRequest{GroupID: groupID, PayerID: "stranger", TotalAmount: 10, SplitPolicy: "EQUAL"},
			code:    connect.CodeNotFound,
			message: "is not a member",
		},
		{
			name:    "unknown group",
			req:     &api.CreateTransactionRequest{GroupID: "nonexistent-id", PayerID: alice, TotalAmount: 10, SplitPolicy: "EQUAL"},
			code:    connect.CodeNotFound,
			message: "group not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(tt.req))
			assertCode(t, tt.code, err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}

	// nothing was recorded
	list, err := ts.txns.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Transactions)
	debts, err := ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, debts.Msg.Debts)
	assert.Empty(t, ts.publisher.types())
}

func TestSettleDebt(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Dinner", "Alice", "Bob")
	alice, bob := ids[0], ids[1]

	_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: alice, TotalAmount: 70, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	t.Run("wrong direction is not found", func(t *testing.T) {
		_, err := ts.txns.SettleDebt(ctx, connect.NewRequest(&api.SettleDebtRequest{GroupID: groupID, FromMemberID: alice, ToMemberID: bob}))
		assertCode(t, connect.CodeNotFound, err)
		assert.Contains(t, err.Error(), "debt not found or already settled")
	})

	t.Run("settle in full", func(t *testing.T) {
		resp, err := ts.txns.SettleDebt(ctx, connect.NewRequest(&api.SettleDebtRequest{GroupID: groupID, FromMemberID: bob, ToMemberID: alice}))
		require.NoError(t, err)

		txn := resp.Msg.Transaction
		assert.Equal(t, string(models.KindSettlement), txn.Kind)
		assert.Equal(t, string(models.SplitExact), txn.SplitPolicy)
		assert.Equal(t, bob, txn.PayerID)
		assert.Equal(t, "Bob", txn.PayerName)
		assert.Equal(t, 35.0, txn.TotalAmount)
		require.Len(t, txn.Splits, 1)
		assert.Equal(t, alice, txn.Splits[0].MemberID)

		debts, err := ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: groupID}))
		require.NoError(t, err)
		assert.Empty(t, debts.Msg.Debts)
	})

	t.Run("already settled", func(t *testing.T) {
		_, err := ts.txns.SettleDebt(ctx, connect.NewRequest(&api.SettleDebtRequest{GroupID: groupID, FromMemberID: bob, ToMemberID: alice}))
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("self settlement rejected", func(t *testing.T) {
		_, err := ts.txns.SettleDebt(ctx, connect.NewRequest(&api.SettleDebtRequest{GroupID: groupID, FromMemberID: bob, ToMemberID: bob}))
		assertCode(t, connect.CodeInvalidArgument, err)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.DebtsSettled))
	assert.Equal(t, []string{events.TypeTransactionRecorded, events.TypeDebtSettled}, ts.publisher.types())
}

func TestListTransactions(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Flat", "Alice", "Bob")
	alice, bob := ids[0], ids[1]

	var created []string
	for i, payer := range []string{alice, bob, alice} {
		resp, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
			GroupID: groupID, PayerID: payer, TotalAmount: float64(10 * (i + 1)), SplitPolicy: "EQUAL",
		}))
		require.NoError(t, err)
		created = append(created, resp.Msg.Transaction.ID)
	}

	resp, err := ts.txns.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Transactions, 3)
	assert.Equal(t, created[2], resp.Msg.Transactions[0].ID, "newest first")
	assert.Equal(t, created[0], resp.Msg.Transactions[2].ID)
	assert.Equal(t, "Bob", resp.Msg.Transactions[1].PayerName)
	assert.Equal(t, "Alice", resp.Msg.Transactions[1].Splits[0].MemberName)

	got, err := ts.txns.GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{TransactionID: created[1]}))
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Msg.Transaction.TotalAmount)
	assert.Equal(t, "Bob", got.Msg.Transaction.PayerName)

	_, err = ts.txns.GetTransaction(ctx, connect.NewRequest(&api.GetTransactionRequest{TransactionID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)
	_, err = ts.txns.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{GroupID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestCreateTransaction_MetricsAndEvents(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Trip", "Alice", "Bob")

	_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: ids[0], TotalAmount: 12, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.TransactionsRecorded.WithLabelValues("EQUAL")))
	assert.Equal(t, 12.0, testutil.ToFloat64(ts.metrics.AmountRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.DebtChanges.WithLabelValues("upsert")))

	// a broken event bus never fails the request
	ts.publisher.fail(errors.New("broker unavailable"))
	_, err = ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: ids[1], TotalAmount: 12, SplitPolicy: "EQUAL",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.EventPublishFailures))
}

func TestCreateTransaction_ConcurrentSameGroup(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	groupID, ids := ts.createGroup(t, "Busy", "Alice", "Bob", "Charlie")

	// Each member pays 30 split three ways ten times; every pair nets out.
	var g errgroup.Group
	for round := 0; round < 10; round++ {
		for _, payer := range ids {
			g.Go(func() error {
				_, err := ts.txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
					GroupID: groupID, PayerID: payer, TotalAmount: 30, SplitPolicy: "EQUAL",
				}))
				if err != nil {
					return fmt.Errorf("payer %s: %w", payer, err)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	debts, err := ts.groups.GetGroupDebts(ctx, connect.NewRequest(&api.GetGroupDebtsRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, debts.Msg.Debts, "no update may be lost")

	list, err := ts.txns.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Len(t, list.Msg.Transactions, 30)
}

// removalStore removes a member from the group right after the first
// LoadMembers call, between the request's membership check and the ledger
// write.
type removalStore struct {
	*memory.Store
	once   sync.Once
	remove func()
}

func (s *removalStore) LoadMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	members, err := s.Store.LoadMembers(ctx, groupID)
	if s.remove != nil {
		s.once.Do(s.remove)
	}
	return members, err
}

func TestCreateTransaction_MemberRemovedConcurrently(t *testing.T) {
	ctx := context.Background()
	store := &removalStore{Store: memory.New()}
	locks := ledger.NewGroupLocks()
	groups := NewGroupService(store, locks)
	txns := NewTransactionService(store, ledger.NewRecorder(store, locks),
		metrics.New(prometheus.NewRegistry()), events.NopPublisher{})

	created, err := groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{
		Title: "Trip", Members: []string{"Alice", "Bob"},
	}))
	require.NoError(t, err)
	groupID := created.Msg.Group.ID
	alice, bob := created.Msg.Members[0].ID, created.Msg.Members[1].ID

	store.remove = func() {
		_, err := groups.RemoveMember(ctx, connect.NewRequest(&api.RemoveMemberRequest{GroupID: groupID, MemberID: bob}))
		assert.NoError(t, err, "RemoveMember should succeed while Bob has no debts")
	}

	_, err = txns.CreateTransaction(ctx, connect.NewRequest(&api.CreateTransactionRequest{
		GroupID: groupID, PayerID: alice, TotalAmount: 100, SplitPolicy: "EQUAL",
	}))
	assertCode(t, connect.CodeInvalidArgument, err)

	debts, err := store.LoadDebts(ctx, groupID)
	require.NoError(t, err)
	assert.Empty(t, debts, "no debt may point at a removed member")
	history, err := store.ListTransactions(ctx, groupID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = groups.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: bob}))
	require.NoError(t, err)
}
