package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/grouptab/internal/api"
	"github.com/mmynk/grouptab/internal/calculator"
	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/events"
	"github.com/mmynk/grouptab/internal/ledger"
	"github.com/mmynk/grouptab/internal/metrics"
	"github.com/mmynk/grouptab/internal/models"
	"github.com/mmynk/grouptab/internal/storage"
)

// TransactionService implements the Connect TransactionService
type TransactionService struct {
	api.UnimplementedTransactionServiceHandler
	store     storage.Store
	recorder  *ledger.Recorder
	metrics   *metrics.Metrics
	publisher events.Publisher
}

// NewTransactionService creates a new TransactionService. Events are
// published after each committed ledger change.
func NewTransactionService(store storage.Store, recorder *ledger.Recorder, m *metrics.Metrics, publisher events.Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		recorder:  recorder,
		metrics:   m,
		publisher: publisher,
	}
}

// CreateTransaction splits a payment among group members and applies it to
// the group's debts.
func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	slog.Info("CreateTransaction request received",
		"group_id", req.Msg.GroupID,
		"payer_id", req.Msg.PayerID,
		"total", req.Msg.TotalAmount,
		"policy", req.Msg.SplitPolicy,
		"participants_count", len(req.Msg.Participants),
	)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}
	if err := requireID("payer id", req.Msg.PayerID); err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}
	policy, err := models.ParseSplitPolicy(req.Msg.SplitPolicy)
	if err != nil {
		return nil, toConnectError("CreateTransaction",
			&errs.Error{Kind: errs.ErrValidation, Message: "invalid split type", Cause: calculator.ErrInvalidSplit})
	}

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("CreateTransaction", errs.Storage(err, "failed to get group"))
	}
	members, err := s.store.LoadMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("CreateTransaction", errs.Storage(err, "failed to load members"))
	}
	if !containsMember(members, req.Msg.PayerID) {
		return nil, toConnectError("CreateTransaction",
			errs.NotFoundf("payer %s is not a member of group %s", req.Msg.PayerID, req.Msg.GroupID))
	}

	participants, err := resolveParticipants(policy, req.Msg.Participants, req.Msg.Values, members)
	if err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}

	shares, err := calculator.CalculateShares(calculator.ShareRequest{
		Total:        req.Msg.TotalAmount,
		Policy:       policy,
		Participants: participants,
		Values:       req.Msg.Values,
	})
	if err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}

	txn := &models.Transaction{
		GroupID:     req.Msg.GroupID,
		PayerID:     req.Msg.PayerID,
		TotalAmount: req.Msg.TotalAmount,
		SplitPolicy: policy,
		Splits:      make([]models.Split, len(shares)),
	}
	for i, share := range shares {
		txn.Splits[i] = models.Split{MemberID: share.MemberID, Amount: share.Amount}
	}

	changes, err := s.recorder.Record(ctx, txn)
	if err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}

	s.metrics.TransactionsRecorded.WithLabelValues(string(policy)).Inc()
	s.metrics.AmountRecorded.Add(txn.TotalAmount)
	s.metrics.ObserveDebtChanges(len(changes.Upserts), len(changes.Deletes))
	s.publish(ctx, events.NewTransactionRecorded(txn, changes))

	slog.Info("Transaction recorded",
		"transaction_id", txn.ID,
		"group_id", txn.GroupID,
		"debt_upserts", len(changes.Upserts),
		"debt_deletes", len(changes.Deletes),
	)

	return connect.NewResponse(&api.CreateTransactionResponse{
		Transaction: toAPITransaction(txn, memberNames(members)),
	}), nil
}

// GetTransaction retrieves a transaction by ID.
func (s *TransactionService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	slog.Info("GetTransaction request received", "transaction_id", req.Msg.TransactionID)

	if err := requireID("transaction id", req.Msg.TransactionID); err != nil {
		return nil, toConnectError("GetTransaction", err)
	}

	txn, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError("GetTransaction", errs.Storage(err, "failed to get transaction"))
	}
	names, err := s.lookupNames(ctx, txn)
	if err != nil {
		return nil, toConnectError("GetTransaction", err)
	}

	return connect.NewResponse(&api.GetTransactionResponse{
		Transaction: toAPITransaction(txn, names),
	}), nil
}

// ListTransactions returns the group's transactions, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	slog.Info("ListTransactions request received", "group_id", req.Msg.GroupID)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("ListTransactions", err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("ListTransactions", errs.Storage(err, "failed to get group"))
	}

	txns, err := s.store.ListTransactions(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("ListTransactions", errs.Storage(err, "failed to list transactions"))
	}
	names, err := s.lookupNames(ctx, txns...)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}

	out := make([]api.Transaction, len(txns))
	for i, txn := range txns {
		out[i] = toAPITransaction(txn, names)
	}

	slog.Info("ListTransactions successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

// SettleDebt clears the debt from one member to another in full.
func (s *TransactionService) SettleDebt(ctx context.Context, req *connect.Request[api.SettleDebtRequest]) (*connect.Response[api.SettleDebtResponse], error) {
	slog.Info("SettleDebt request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.FromMemberID,
		"to", req.Msg.ToMemberID,
	)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("SettleDebt", err)
	}
	if err := requireID("from member id", req.Msg.FromMemberID); err != nil {
		return nil, toConnectError("SettleDebt", err)
	}
	if err := requireID("to member id", req.Msg.ToMemberID); err != nil {
		return nil, toConnectError("SettleDebt", err)
	}
	if req.Msg.FromMemberID == req.Msg.ToMemberID {
		return nil, toConnectError("SettleDebt", errs.Validationf("cannot settle a debt with oneself"))
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("SettleDebt", errs.Storage(err, "failed to get group"))
	}

	txn, err := s.recorder.Settle(ctx, req.Msg.GroupID, req.Msg.FromMemberID, req.Msg.ToMemberID)
	if err != nil {
		return nil, toConnectError("SettleDebt", err)
	}

	s.metrics.DebtsSettled.Inc()
	s.metrics.ObserveDebtChanges(0, 1)
	s.publish(ctx, events.NewDebtSettled(txn))

	names, err := s.lookupNames(ctx, txn)
	if err != nil {
		// The settlement is committed; names are cosmetic.
		slog.Warn("SettleDebt: failed to look up member names", "error", err)
	}

	slog.Info("Debt settled", "transaction_id", txn.ID, "amount", txn.TotalAmount)

	return connect.NewResponse(&api.SettleDebtResponse{
		Transaction: toAPITransaction(txn, names),
	}), nil
}

// publish sends an event without failing the request. The change is
// already committed, so a client cancellation must not drop the event.
func (s *TransactionService) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.EventPublishFailures.Inc()
		slog.Warn("Failed to publish ledger event",
			"type", event.Type,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}

func (s *TransactionService) lookupNames(ctx context.Context, txns ...*models.Transaction) (map[string]string, error) {
	found, err := s.store.GetMembersByIDs(ctx, memberIDs(txns...))
	if err != nil {
		return nil, errs.Storage(err, "failed to look up members")
	}
	names := make(map[string]string, len(found))
	for id, m := range found {
		names[id] = m.Name
	}
	return names, nil
}

func memberNames(members []models.Member) map[string]string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}

// resolveParticipants picks who splits the payment. Explicit participants
// must all be group members. Without them, an equal split covers the whole
// group and other policies cover the members named in values, in join order.
func resolveParticipants(policy models.SplitPolicy, requested []string, values map[string]float64, members []models.Member) ([]string, error) {
	if len(requested) > 0 {
		for _, id := range requested {
			if id != "" && !containsMember(members, id) {
				return nil, errs.Validationf("participant %s is not a member of the group", id)
			}
		}
		return requested, nil
	}

	if policy != models.SplitEqual {
		for id := range values {
			if !containsMember(members, id) {
				return nil, errs.Validationf("participant %s is not a member of the group", id)
			}
		}
	}

	var participants []string
	for _, m := range members {
		if policy == models.SplitEqual {
			participants = append(participants, m.ID)
		} else if _, ok := values[m.ID]; ok {
			participants = append(participants, m.ID)
		}
	}
	return participants, nil
}
