package service

import (
	"context"
	"errors"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"
)

type JoinRequestService struct {
	base
	groups *GroupService
}

func (s *JoinRequestService) CreateJoinRequest(ctx context.Context, identity models.Identity, groupID string) (*models.JoinRequest, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, apperrors.ErrGroupInactive
	}
	if group.HasMember(identity.UserID) {
		return nil, apperrors.ErrAlreadyMember
	}

	pending, err := s.store.JoinRequests.HasPending(ctx, groupID, identity.UserID)
	if err != nil {
		return nil, storeErr(err, nil, "check join requests")
	}
	if pending {
		return nil, apperrors.ErrPendingRequestExists
	}

	now := s.timestamp()
	req := &models.JoinRequest{
		ID:           newID(),
		GroupID:      groupID,
		UserID:       identity.UserID,
		UserName:     identity.DisplayName(defaultMemberName),
		UserPhotoURL: identity.PhotoURL,
		UserEmail:    identity.Email,
		Status:       models.JoinRequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.JoinRequests.CreateJoinRequest(ctx, req)
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.ErrPendingRequestExists
	}
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, "create join request")
	}

	s.log.Info("join request created", "requestId", req.ID, "groupId", groupID, "userId", identity.UserID)
	return req, nil
}

func (s *JoinRequestService) HasPendingRequest(ctx context.Context, groupID, userID string) (bool, error) {
	pending, err := s.store.JoinRequests.HasPending(ctx, groupID, userID)
	return pending, storeErr(err, nil, "check join requests")
}

// GroupRequests lists a group's requests newest first. Only the creator may read them.
func (s *JoinRequestService) GroupRequests(ctx context.Context, actor models.Identity, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if _, err := s.groups.requireCreator(ctx, groupID, actor.UserID); err != nil {
		return nil, err
	}
	reqs, err := s.store.JoinRequests.ListByGroup(ctx, groupID, status)
	return reqs, storeErr(err, nil, "list join requests")
}

func (s *JoinRequestService) UserRequests(ctx context.Context, userID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	reqs, err := s.store.JoinRequests.ListByUser(ctx, userID, status)
	return reqs, storeErr(err, nil, "list join requests")
}

func (s *JoinRequestService) load(ctx context.Context, id string) (*models.JoinRequest, error) {
	req, err := s.store.JoinRequests.GetJoinRequest(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrRequestNotFound, "load join request")
	}
	return req, nil
}

// Approve closes the request and adds the requester to the group. The
// pending to approved write is conditional and happens first, so a request
// that lost a race to Reject or Cancel never adds a member.
func (s *JoinRequestService) Approve(ctx context.Context, actor models.Identity, id string) (*models.JoinRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.requireCreator(ctx, req.GroupID, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, models.JoinRequestApproved); err != nil {
		return nil, err
	}

	member := models.GroupMember{UserID: req.UserID, Name: req.UserName, PhotoURL: req.UserPhotoURL}
	err = s.groups.AddMemberToGroup(ctx, req.GroupID, member)
	if err != nil && !errors.Is(err, apperrors.ErrAlreadyMember) {
		s.revertApproval(ctx, req)
		return nil, err
	}

	s.log.Info("join request approved", "requestId", id, "groupId", req.GroupID, "userId", req.UserID)
	return req, nil
}

// revertApproval puts a request back to pending after the member add failed
func (s *JoinRequestService) revertApproval(ctx context.Context, req *models.JoinRequest) {
	at := s.timestamp()
	err := s.store.JoinRequests.TransitionStatus(ctx, req.ID, models.JoinRequestApproved, models.JoinRequestPending, at)
	if err != nil {
		s.log.Error("failed to revert join request approval", "requestId", req.ID, "err", err)
		return
	}
	req.Status = models.JoinRequestPending
	req.UpdatedAt = at
}

// Reject closes a pending request on behalf of the group creator
func (s *JoinRequestService) Reject(ctx context.Context, actor models.Identity, id string) (*models.JoinRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.requireCreator(ctx, req.GroupID, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, models.JoinRequestRejected); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel withdraws a pending request on behalf of the requester
func (s *JoinRequestService) Cancel(ctx context.Context, actor models.Identity, id string) (*models.JoinRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actor.UserID {
		return nil, apperrors.ErrNotRequester
	}
	if err := s.transition(ctx, req, models.JoinRequestCancelled); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *JoinRequestService) transition(ctx context.Context, req *models.JoinRequest, to models.JoinRequestStatus) error {
	if req.Status.Terminal() {
		return apperrors.ErrRequestProcessed
	}
	at := s.timestamp()
	err := s.store.JoinRequests.TransitionStatus(ctx, req.ID, models.JoinRequestPending, to, at)
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.ErrRequestProcessed
	}
	if err != nil {
		return storeErr(err, apperrors.ErrRequestNotFound, "update join request")
	}
	req.Status = to
	req.UpdatedAt = at
	return nil
}
