// Package memory provides an in-memory implementation of the storage.Store
// interface. Data lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
	"github.com/mmynk/grouptab/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type membership struct {
	memberID string
	joinedAt int64
	seq      int
}

// Store implements storage.Store with maps guarded by a single mutex.
// Every method returns copies, so callers never alias stored state.
type Store struct {
	mu sync.RWMutex

	groups      map[string]models.Group
	groupOrder  []string
	members     map[string]models.Member
	memberships map[string][]membership // group ID -> memberships in join order
	debts       map[string]map[models.DebtKey]float64
	txns        map[string]*models.Transaction
	txnOrder    map[string][]string // group ID -> transaction IDs, oldest first
	seq         int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		groups:      make(map[string]models.Group),
		members:     make(map[string]models.Member),
		memberships: make(map[string][]membership),
		debts:       make(map[string]map[models.DebtKey]float64),
		txns:        make(map[string]*models.Transaction),
		txnOrder:    make(map[string][]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return errs.Conflictf("group already exists: %s", group.ID)
	}
	s.groups[group.ID] = *group
	s.groupOrder = append(s.groupOrder, group.ID)
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, errs.NotFoundf("group not found: %s", groupID)
	}
	return &g, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*models.Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		g := s.groups[id]
		groups = append(groups, &g)
	}
	return groups, nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return errs.NotFoundf("group not found: %s", groupID)
	}
	delete(s.groups, groupID)
	for i, id := range s.groupOrder {
		if id == groupID {
			s.groupOrder = append(s.groupOrder[:i], s.groupOrder[i+1:]...)
			break
		}
	}
	delete(s.memberships, groupID)
	delete(s.debts, groupID)
	for _, id := range s.txnOrder[groupID] {
		delete(s.txns, id)
	}
	delete(s.txnOrder, groupID)
	return nil
}

func (s *Store) AddMember(ctx context.Context, groupID string, member *models.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return errs.NotFoundf("group not found: %s", groupID)
	}
	if _, ok := s.members[member.ID]; ok {
		return errs.Conflictf("member already exists: %s", member.ID)
	}
	s.members[member.ID] = *member
	s.seq++
	s.memberships[groupID] = append(s.memberships[groupID], membership{
		memberID: member.ID,
		joinedAt: member.CreatedAt,
		seq:      s.seq,
	})
	return nil
}

func (s *Store) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberID]
	if !ok {
		return nil, errs.NotFoundf("member not found: %s", memberID)
	}
	return &m, nil
}

func (s *Store) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]*models.Member, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			found[id] = &m
		}
	}
	return found, nil
}

func (s *Store) RenameMember(ctx context.Context, memberID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return errs.NotFoundf("member not found: %s", memberID)
	}
	m.Name = name
	s.members[memberID] = m
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[memberID]; !ok {
		return errs.NotFoundf("member not found: %s", memberID)
	}
	count := 0
	for _, ms := range s.memberships {
		for _, m := range ms {
			if m.memberID == memberID {
				count++
			}
		}
	}
	if count > 0 {
		return errs.Conflictf("member still belongs to %d group(s)", count)
	}
	delete(s.members, memberID)
	return nil
}

func (s *Store) LoadMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ms := append([]membership(nil), s.memberships[groupID]...)
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].joinedAt != ms[j].joinedAt {
			return ms[i].joinedAt < ms[j].joinedAt
		}
		return ms[i].seq < ms[j].seq
	})

	var members []models.Member
	for _, m := range ms {
		members = append(members, s.members[m.memberID])
	}
	return members, nil
}

func (s *Store) RemoveMembership(ctx context.Context, groupID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.memberships[groupID]
	idx := -1
	for i, m := range ms {
		if m.memberID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errs.NotFoundf("member %s is not in group %s", memberID, groupID)
	}
	for k := range s.debts[groupID] {
		if k.DebtorID == memberID || k.CreditorID == memberID {
			return errs.Conflictf("member cannot be removed: they have unsettled debts")
		}
	}
	s.memberships[groupID] = append(ms[:idx:idx], ms[idx+1:]...)
	return nil
}

func (s *Store) LoadDebts(ctx context.Context, groupID string) ([]models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var debts []models.Debt
	for k, amount := range s.debts[groupID] {
		debts = append(debts, models.Debt{
			GroupID:    groupID,
			DebtorID:   k.DebtorID,
			CreditorID: k.CreditorID,
			Amount:     amount,
		})
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].DebtorID != debts[j].DebtorID {
			return debts[i].DebtorID < debts[j].DebtorID
		}
		return debts[i].CreditorID < debts[j].CreditorID
	})
	return debts, nil
}

func (s *Store) CommitDebtChanges(ctx context.Context, groupID string, changes models.DebtChanges) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDebtChanges(groupID, changes); err != nil {
		return err
	}
	s.applyDebtChanges(groupID, changes)
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTransaction(txn); err != nil {
		return err
	}
	s.appendTransaction(txn)
	return nil
}

func (s *Store) RecordTransaction(ctx context.Context, txn *models.Transaction, changes models.DebtChanges) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before mutating so a rejected write leaves no trace.
	if err := s.checkTransaction(txn); err != nil {
		return err
	}
	if err := s.checkDebtChanges(txn.GroupID, changes); err != nil {
		return err
	}
	s.appendTransaction(txn)
	s.applyDebtChanges(txn.GroupID, changes)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txns[transactionID]
	if !ok {
		return nil, errs.NotFoundf("transaction not found: %s", transactionID)
	}
	return copyTransaction(txn), nil
}

func (s *Store) ListTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.txnOrder[groupID]
	txns := make([]*models.Transaction, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		txns = append(txns, copyTransaction(s.txns[ids[i]]))
	}
	// Walked newest first; the stable sort keeps that order within one second.
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].CreatedAt > txns[j].CreatedAt
	})
	return txns, nil
}

func (s *Store) checkTransaction(txn *models.Transaction) error {
	if _, ok := s.groups[txn.GroupID]; !ok {
		return errs.NotFoundf("group not found: %s", txn.GroupID)
	}
	if txn.ID != "" {
		if _, ok := s.txns[txn.ID]; ok {
			return errs.Conflictf("transaction already exists: %s", txn.ID)
		}
	}
	return nil
}

func (s *Store) appendTransaction(txn *models.Transaction) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	if txn.Kind == "" {
		txn.Kind = models.KindExpense
	}
	for i := range txn.Splits {
		txn.Splits[i].TransactionID = txn.ID
	}
	s.txns[txn.ID] = copyTransaction(txn)
	s.txnOrder[txn.GroupID] = append(s.txnOrder[txn.GroupID], txn.ID)
}

// checkDebtChanges enforces the same constraints as the SQL schema.
func (s *Store) checkDebtChanges(groupID string, changes models.DebtChanges) error {
	if changes.IsEmpty() {
		return nil
	}
	if _, ok := s.groups[groupID]; !ok {
		return errs.NotFoundf("group not found: %s", groupID)
	}
	for _, d := range changes.Upserts {
		if d.Amount <= 0 {
			return errs.Validationf("debt amount must be positive: %s->%s", d.DebtorID, d.CreditorID)
		}
		if d.DebtorID == d.CreditorID {
			return errs.Validationf("member cannot owe themselves: %s", d.DebtorID)
		}
	}
	return nil
}

func (s *Store) applyDebtChanges(groupID string, changes models.DebtChanges) {
	if changes.IsEmpty() {
		return
	}
	debts := s.debts[groupID]
	if debts == nil {
		debts = make(map[models.DebtKey]float64)
		s.debts[groupID] = debts
	}
	for _, k := range changes.Deletes {
		delete(debts, k)
	}
	for _, d := range changes.Upserts {
		debts[d.Key()] = d.Amount
	}
}

func copyTransaction(txn *models.Transaction) *models.Transaction {
	c := *txn
	c.Splits = append([]models.Split(nil), txn.Splits...)
	return &c
}
