package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJoinRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1", "u2")

	req, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u3"), g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, req.Status)
	assert.Equal(t, "name-u3", req.UserName)
	assert.Equal(t, "u3@example.com", req.UserEmail)

	_, err = f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u3"), g.ID)
	assert.ErrorIs(t, err, apperrors.ErrPendingRequestExists)

	_, err = f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)

	_, err = f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u3"), "missing")
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)

	pending, err := f.svc.JoinRequests.HasPendingRequest(ctx, g.ID, "u3")
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestApproveTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1")
	req, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	require.NoError(t, err)

	_, err = f.svc.JoinRequests.Approve(ctx, identity("u2"), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotGroupCreator)

	approved, err := f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, approved.Status)

	_, err = f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestProcessed)

	got, err := f.svc.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.MemberIDs())

	_, err = f.svc.JoinRequests.Approve(ctx, identity("u1"), "missing")
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestApprove_MemberAlreadyAddedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1")
	req, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	require.NoError(t, err)

	_, err = f.svc.Groups.JoinGroupByLink(ctx, identity("u2"), g.ID)
	require.NoError(t, err)

	approved, err := f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, approved.Status)

	got, err := f.svc.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.MemberIDs())
}

func TestRejectAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1")

	rejected, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	require.NoError(t, err)
	withdrawn, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u3"), g.ID)
	require.NoError(t, err)

	_, err = f.svc.JoinRequests.Reject(ctx, identity("u3"), rejected.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotGroupCreator)
	out, err := f.svc.JoinRequests.Reject(ctx, identity("u1"), rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, out.Status)
	_, err = f.svc.JoinRequests.Reject(ctx, identity("u1"), rejected.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestProcessed)

	_, err = f.svc.JoinRequests.Cancel(ctx, identity("u1"), withdrawn.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotRequester)
	out, err = f.svc.JoinRequests.Cancel(ctx, identity("u3"), withdrawn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestCancelled, out.Status)
	_, err = f.svc.JoinRequests.Approve(ctx, identity("u1"), withdrawn.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestProcessed)

	all, err := f.svc.JoinRequests.GroupRequests(ctx, identity("u1"), g.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, withdrawn.ID, all[0].ID)

	cancelled, err := f.svc.JoinRequests.GroupRequests(ctx, identity("u1"), g.ID, models.JoinRequestCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	_, err = f.svc.JoinRequests.GroupRequests(ctx, identity("u2"), g.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotGroupCreator)
	_, err = f.svc.JoinRequests.UserRequests(ctx, "u2", "bogus")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	mine, err := f.svc.JoinRequests.UserRequests(ctx, "u2", models.JoinRequestRejected)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, rejected.ID, mine[0].ID)
}

// racingRequests lets a reject land right before the approval's status write
type racingRequests struct {
	repository.JoinRequestRepository
}

func (r *racingRequests) TransitionStatus(ctx context.Context, id string, from, to models.JoinRequestStatus, at time.Time) error {
	if to == models.JoinRequestApproved {
		if err := r.JoinRequestRepository.TransitionStatus(ctx, id, models.JoinRequestPending, models.JoinRequestRejected, at); err != nil {
			return err
		}
	}
	return r.JoinRequestRepository.TransitionStatus(ctx, id, from, to, at)
}

type countingGroups struct {
	repository.GroupRepository
	adds int
	fail bool
}

func (g *countingGroups) AddMember(ctx context.Context, groupID string, member models.GroupMember, at time.Time) error {
	g.adds++
	if g.fail {
		return errors.New("group store unavailable")
	}
	return g.GroupRepository.AddMember(ctx, groupID, member, at)
}

func TestApprove_LosingRaceAddsNoMember(t *testing.T) {
	groups := &countingGroups{}
	f := newFixture(t, func(s *repository.Store) {
		groups.GroupRepository = s.Groups
		s.Groups = groups
		s.JoinRequests = &racingRequests{JoinRequestRepository: s.JoinRequests}
	})
	ctx := context.Background()
	g := f.group(t, "Crew", "u1")
	req, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	require.NoError(t, err)

	_, err = f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestProcessed)
	assert.Zero(t, groups.adds)

	stored, err := f.mem.GetJoinRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, stored.Status)

	got, err := f.svc.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.MemberIDs())
}

func TestApprove_FailedAddLeavesRequestPending(t *testing.T) {
	groups := &countingGroups{}
	f := newFixture(t, func(s *repository.Store) {
		groups.GroupRepository = s.Groups
		s.Groups = groups
	})
	ctx := context.Background()
	g := f.group(t, "Crew", "u1")
	req, err := f.svc.JoinRequests.CreateJoinRequest(ctx, identity("u2"), g.ID)
	require.NoError(t, err)

	groups.fail = true
	_, err = f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))

	stored, err := f.mem.GetJoinRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, stored.Status)

	groups.fail = false
	approved, err := f.svc.JoinRequests.Approve(ctx, identity("u1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, approved.Status)
}
