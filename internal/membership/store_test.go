package membership_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"github.com/yukikurage/team-allocation-api/internal/membership/membershiptest"
)

func addReq(projectID, userID uint64) membership.AddRequest {
	return membership.AddRequest{
		ProjectID:            projectID,
		UserID:               userID,
		Role:                 "developer",
		AllocationPercentage: 50,
	}
}

func TestStore_GetRosterReadsThroughCache(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "developer")
	store := membership.NewStore(remote)
	ctx := context.Background()

	first, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	second, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, remote.ListCalls)
}

func TestStore_AddTwiceKeepsOneMembership(t *testing.T) {
	remote := membershiptest.NewRemote()
	store := membership.NewStore(remote)
	ctx := context.Background()

	created, err := store.Add(ctx, addReq(1, 10))
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = store.Add(ctx, addReq(1, 10))
	require.ErrorIs(t, err, membership.ErrDuplicateMembership)

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Equal(t, 1, remote.AddCalls, "second add fails fast on the cached roster")
}

func TestStore_BackendDuplicateReconcilesCache(t *testing.T) {
	remote := membershiptest.NewRemote()
	store := membership.NewStore(remote)
	ctx := context.Background()

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, roster)

	// another client adds the same member behind our back
	remote.Seed(1, 10, "designer")

	_, err = store.Add(ctx, addReq(1, 10))
	require.ErrorIs(t, err, membership.ErrDuplicateMembership)
	assert.Equal(t, 1, remote.AddCalls)

	roster, err = store.GetRoster(ctx, 1)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "designer", roster[0].Role)
}

func TestStore_AddRefetchesRoster(t *testing.T) {
	remote := membershiptest.NewRemote()
	store := membership.NewStore(remote)
	ctx := context.Background()

	_, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)

	_, err = store.Add(ctx, addReq(1, 10))
	require.NoError(t, err)

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, uint64(10), roster[0].UserID)
	assert.Equal(t, 2, remote.ListCalls)
}

func TestStore_AddInvalidRequest(t *testing.T) {
	store := membership.NewStore(membershiptest.NewRemote())

	req := addReq(1, 10)
	req.AllocationPercentage = 150
	_, err := store.Add(context.Background(), req)
	require.ErrorIs(t, err, membership.ErrInvalidRequest)

	req = addReq(1, 10)
	req.Role = ""
	_, err = store.Add(context.Background(), req)
	require.ErrorIs(t, err, membership.ErrInvalidRequest)
}

func TestStore_AddTransportErrorLeavesRosterUnchanged(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.FailAdd = &membership.TransportError{Op: "add", Err: errors.New("connection refused")}
	store := membership.NewStore(remote)
	ctx := context.Background()

	_, err := store.Add(ctx, addReq(1, 10))
	require.Error(t, err)
	assert.True(t, membership.IsTransport(err))

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, roster)
	assert.False(t, store.IsPending(1, 10))
}

func TestStore_CapacityCheck(t *testing.T) {
	remote := membershiptest.NewRemote()
	for i := uint64(1); i <= 9; i++ {
		remote.Seed(1, i, "developer")
	}
	store := membership.NewStore(remote, membership.WithCapacity(capacity.New(0)))

	_, err := store.Add(context.Background(), addReq(1, 99))
	require.ErrorIs(t, err, membership.ErrCapacityExceeded)
	require.ErrorIs(t, err, capacity.ErrTeamAtCapacity)
	assert.Equal(t, 0, remote.AddCalls)
}

func TestStore_RemoveNonMemberIsNoop(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "developer")
	store := membership.NewStore(remote)
	ctx := context.Background()

	before, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, 1, 42))

	after, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestStore_RemoveMember(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "developer")
	store := membership.NewStore(remote)
	ctx := context.Background()

	_, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, 1, 10))

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestStore_RemoveTransportErrorPropagates(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "developer")
	remote.FailRemove = &membership.TransportError{Op: "remove", StatusCode: 502, Err: errors.New("bad gateway")}
	store := membership.NewStore(remote)

	err := store.Remove(context.Background(), 1, 10)
	require.Error(t, err)
	assert.True(t, membership.IsTransport(err))
	assert.Len(t, remote.Roster(1), 1)
}

func TestStore_Update(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "developer")
	store := membership.NewStore(remote)
	ctx := context.Background()

	role := "manager"
	alloc := 60
	updated, err := store.Update(ctx, membership.UpdateRequest{
		ProjectID:            1,
		UserID:               10,
		Role:                 &role,
		AllocationPercentage: &alloc,
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)

	roster, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, 60, roster[0].AllocationPercentage)

	_, err = store.Update(ctx, membership.UpdateRequest{ProjectID: 1, UserID: 77, Role: &role})
	require.ErrorIs(t, err, membership.ErrMemberNotFound)
}

func TestStore_PromotionCheckedAgainstManagerCeiling(t *testing.T) {
	remote := membershiptest.NewRemote()
	remote.Seed(1, 10, "manager")
	remote.Seed(1, 11, "developer")
	store := membership.NewStore(remote, membership.WithCapacity(capacity.New(1)))
	ctx := context.Background()

	role := "manager"
	_, err := store.Update(ctx, membership.UpdateRequest{ProjectID: 1, UserID: 11, Role: &role})
	require.ErrorIs(t, err, membership.ErrCapacityExceeded)
	require.ErrorIs(t, err, capacity.ErrManagerLimitReached)
	assert.Equal(t, 0, remote.UpdateCalls)
	assert.False(t, store.IsPending(1, 11))

	// the sitting manager keeps the role, and non-role edits are unaffected
	alloc := 40
	_, err = store.Update(ctx, membership.UpdateRequest{ProjectID: 1, UserID: 10, Role: &role})
	require.NoError(t, err)
	_, err = store.Update(ctx, membership.UpdateRequest{ProjectID: 1, UserID: 11, AllocationPercentage: &alloc})
	require.NoError(t, err)
	assert.Equal(t, 2, remote.UpdateCalls)
}

// gatedRemote blocks adds until released so the pending state can be observed.
type gatedRemote struct {
	*membershiptest.Remote
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRemote) AddToProject(ctx context.Context, req membership.AddRequest) (*membership.Membership, error) {
	close(g.entered)
	<-g.release
	return g.Remote.AddToProject(ctx, req)
}

func TestStore_PendingGatesRepeatWrites(t *testing.T) {
	remote := &gatedRemote{
		Remote:  membershiptest.NewRemote(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := membership.NewStore(remote)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := store.Add(ctx, addReq(1, 10))
		done <- err
	}()

	<-remote.entered
	assert.True(t, store.IsPending(1, 10))
	assert.Equal(t, []membership.Key{{ProjectID: 1, UserID: 10}}, store.Pending())

	_, err := store.Add(ctx, addReq(1, 10))
	require.ErrorIs(t, err, membership.ErrOperationPending)
	require.ErrorIs(t, store.Remove(ctx, 1, 10), membership.ErrOperationPending)

	close(remote.release)
	require.NoError(t, <-done)
	assert.False(t, store.IsPending(1, 10))
}

func TestStore_CloseStopsRefetch(t *testing.T) {
	remote := membershiptest.NewRemote()
	store := membership.NewStore(remote)
	ctx := context.Background()

	_, err := store.GetRoster(ctx, 1)
	require.NoError(t, err)

	store.Close()
	_, err = store.Add(ctx, addReq(1, 10))
	require.NoError(t, err)

	assert.Equal(t, 1, remote.ListCalls)
	assert.Len(t, remote.Roster(1), 1, "the write itself still completes")
}
