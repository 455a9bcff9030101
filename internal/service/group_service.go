package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/grouptab/internal/api"
	"github.com/mmynk/grouptab/internal/calculator"
	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/ledger"
	"github.com/mmynk/grouptab/internal/models"
	"github.com/mmynk/grouptab/internal/storage"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	api.UnimplementedGroupServiceHandler
	store storage.Store
	locks *ledger.GroupLocks
}

// NewGroupService creates a new GroupService. locks must be the table the
// ledger Recorder uses, so membership changes never interleave with a
// ledger update of the same group.
func NewGroupService(store storage.Store, locks *ledger.GroupLocks) *GroupService {
	return &GroupService{store: store, locks: locks}
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.Validationf("%s is required", field)
	}
	return nil
}

func requireName(field, value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", errs.Validationf("%s is required", field)
	}
	return name, nil
}

// CreateGroup creates a new group, optionally with initial members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"title", req.Msg.Title,
		"members_count", len(req.Msg.Members),
	)

	title, err := requireName("title", req.Msg.Title)
	if err != nil {
		return nil, toConnectError("CreateGroup", err)
	}
	names := make([]string, len(req.Msg.Members))
	for i, n := range req.Msg.Members {
		if names[i], err = requireName("member name", n); err != nil {
			return nil, toConnectError("CreateGroup", err)
		}
	}

	group := &models.Group{Title: title}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError("CreateGroup", errs.Storage(err, "failed to create group"))
	}

	members := make([]api.Member, 0, len(names))
	for _, name := range names {
		member := &models.Member{Name: name}
		if err := s.store.AddMember(ctx, group.ID, member); err != nil {
			return nil, toConnectError("CreateGroup", errs.Storage(err, "failed to add member"))
		}
		members = append(members, toAPIMember(*member))
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{
		Group:   toAPIGroup(group),
		Members: members,
	}), nil
}

// GetGroup retrieves a group with its members and, when a member is given,
// that member's net balance in the group.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("GetGroup", err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroup", errs.Storage(err, "failed to get group"))
	}
	members, err := s.store.LoadMembers(ctx, group.ID)
	if err != nil {
		return nil, toConnectError("GetGroup", errs.Storage(err, "failed to load members"))
	}

	resp := &api.GetGroupResponse{
		Group:   toAPIGroup(group),
		Members: toAPIMembers(members),
	}

	if req.Msg.MemberID != "" {
		if !containsMember(members, req.Msg.MemberID) {
			return nil, toConnectError("GetGroup", errs.NotFoundf("member %s is not in group %s", req.Msg.MemberID, group.ID))
		}
		debts, err := s.store.LoadDebts(ctx, group.ID)
		if err != nil {
			return nil, toConnectError("GetGroup", errs.Storage(err, "failed to load debts"))
		}
		balance := calculator.NetBalance(req.Msg.MemberID, debts)
		resp.Balance = &balance
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "members", len(members))

	return connect.NewResponse(resp), nil
}

// ListGroups lists all groups, oldest first. With a member ID it lists only
// that member's groups, each with the member's balance.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received", "member_id", req.Msg.MemberID)

	memberID := req.Msg.MemberID
	if memberID != "" {
		if _, err := s.store.GetMember(ctx, memberID); err != nil {
			return nil, toConnectError("ListGroups", errs.Storage(err, "failed to get member"))
		}
	}

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, toConnectError("ListGroups", errs.Storage(err, "failed to list groups"))
	}

	summaries := make([]api.GroupSummary, 0, len(groups))
	for _, group := range groups {
		summary := api.GroupSummary{Group: toAPIGroup(group)}
		if memberID != "" {
			members, err := s.store.LoadMembers(ctx, group.ID)
			if err != nil {
				return nil, toConnectError("ListGroups", errs.Storage(err, "failed to load members"))
			}
			if !containsMember(members, memberID) {
				continue
			}
			debts, err := s.store.LoadDebts(ctx, group.ID)
			if err != nil {
				return nil, toConnectError("ListGroups", errs.Storage(err, "failed to load debts"))
			}
			summary.Balance = calculator.NetBalance(memberID, debts)
		}
		summaries = append(summaries, summary)
	}

	slog.Info("ListGroups successful", "count", len(summaries))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: summaries}), nil
}

// DeleteGroup removes a group with its members' memberships, debts and history.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}

	unlock, err := s.locks.Lock(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}
	defer unlock()

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError("DeleteGroup", errs.Storage(err, "failed to delete group"))
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember creates a member and adds it to the group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("AddMember", err)
	}
	name, err := requireName("member name", req.Msg.Name)
	if err != nil {
		return nil, toConnectError("AddMember", err)
	}

	member := &models.Member{Name: name}
	if err := s.store.AddMember(ctx, req.Msg.GroupID, member); err != nil {
		return nil, toConnectError("AddMember", errs.Storage(err, "failed to add member"))
	}

	slog.Info("Member added", "group_id", req.Msg.GroupID, "member_id", member.ID)

	return connect.NewResponse(&api.AddMemberResponse{Member: toAPIMember(*member)}), nil
}

// RemoveMember removes a member from a group. Members with outstanding
// debts in the group cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	if err := requireID("group id", req.Msg.GroupID); err != nil {
		return nil, toConnectError("RemoveMember", err)
	}
	if err := requireID("member id", req.Msg.MemberID); err != nil {
		return nil, toConnectError("RemoveMember", err)
	}

	unlock, err := s.locks.Lock(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("RemoveMember", err)
	}
	defer unlock()

	if err := s.store.RemoveMembership(ctx, req.Msg.GroupID, req.Msg.MemberID); err != nil {
		return nil, toConnectError("RemoveMember", errs.Storage(err, "failed to remove member"))
	}

	slog.Info("Member removed", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// RenameMember changes a member's display name.
func (s *GroupService) RenameMember(ctx context.Context, req *connect.Request[api.RenameMemberRequest]) (*connect.Response[api.RenameMemberResponse], error) {
	slog.Info("RenameMember request received", "member_id", req.Msg.MemberID, "name", req.Msg.Name)

	if err := requireID("member id", req.Msg.MemberID); err != nil {
		return nil, toConnectError("RenameMember", err)
	}
	name, err := requireName("member name", req.Msg.Name)
	if err != nil {
		return nil, toConnectError("RenameMember", err)
	}

	if err := s.store.RenameMember(ctx, req.Msg.MemberID, name); err != nil {
		return nil, toConnectError("RenameMember", errs.Storage(err, "failed to rename member"))
	}
	member, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError("RenameMember", errs.Storage(err, "failed to get member"))
	}

	return connect.NewResponse(&api.RenameMemberResponse{Member: toAPIMember(*member)}), nil
}

// DeleteMember deletes a member that no longer belongs to any group.
func (s *GroupService) DeleteMember(ctx context.Context, req *connect.Request[api.DeleteMemberRequest]) (*connect.Response[api.DeleteMemberResponse], error) {
	slog.Info("DeleteMember request received", "member_id", req.Msg.MemberID)

	if err := requireID("member id", req.Msg.MemberID); err != nil {
		return nil, toConnectError("DeleteMember", err)
	}

	if err := s.store.DeleteMember(ctx, req.Msg.MemberID); err != nil {
		return nil, toConnectError("DeleteMember", errs.Storage(err, "failed to delete member"))
	}

	slog.Info("Member deleted", "member_id", req.Msg.MemberID)

	return connect.NewResponse(&api.DeleteMemberResponse{}), nil
}

// GetGroupDebts lists the group's outstanding debts with member names.
func (s *GroupService) GetGroupDebts(ctx context.Context, req *connect.Request[api.GetGroupDebtsRequest]) (*connect.Response[api.GetGroupDebtsResponse], error) {
	slog.Info("GetGroupDebts request received", "group_id", req.Msg.GroupID)

	members, debts, err := s.loadLedgerView(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroupDebts", err)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	out := make([]api.Debt, len(debts))
	for i, d := range debts {
		out[i] = api.Debt{
			DebtorID:     d.DebtorID,
			DebtorName:   names[d.DebtorID],
			CreditorID:   d.CreditorID,
			CreditorName: names[d.CreditorID],
			Amount:       d.Amount,
		}
	}

	slog.Info("GetGroupDebts successful", "group_id", req.Msg.GroupID, "debts", len(out))

	return connect.NewResponse(&api.GetGroupDebtsResponse{Debts: out}), nil
}

// GetGroupBalances returns every member's net balance in the group.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	slog.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)

	members, debts, err := s.loadLedgerView(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroupBalances", err)
	}

	balances := calculator.GroupBalances(members, debts)

	return connect.NewResponse(&api.GetGroupBalancesResponse{Balances: toAPIBalances(balances)}), nil
}

// loadLedgerView loads members and debts of an existing group.
func (s *GroupService) loadLedgerView(ctx context.Context, groupID string) ([]models.Member, []models.Debt, error) {
	if err := requireID("group id", groupID); err != nil {
		return nil, nil, err
	}
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, nil, errs.Storage(err, "failed to get group")
	}
	members, err := s.store.LoadMembers(ctx, groupID)
	if err != nil {
		return nil, nil, errs.Storage(err, "failed to load members")
	}
	debts, err := s.store.LoadDebts(ctx, groupID)
	if err != nil {
		return nil, nil, errs.Storage(err, "failed to load debts")
	}
	return members, debts, nil
}

func containsMember(members []models.Member, memberID string) bool {
	for _, m := range members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}
