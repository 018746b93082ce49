// Package membershiptest provides an in-memory membership.Remote for tests.
package membershiptest

import (
	"context"
	"sync"
	"time"

	"github.com/yukikurage/team-allocation-api/internal/membership"
)

// Remote is an in-memory backend. The Fail* fields inject errors into the
// next calls of the matching operation until cleared.
type Remote struct {
	mu      sync.Mutex
	nextID  uint64
	members map[membership.Key]*membership.Membership

	FailList   error
	FailAdd    error
	FailUpdate error
	FailRemove error

	ListCalls   int
	AddCalls    int
	UpdateCalls int
	RemoveCalls int
}

// NewRemote creates an empty Remote.
func NewRemote() *Remote {
	return &Remote{members: make(map[membership.Key]*membership.Membership)}
}

// Seed inserts an active membership directly, bypassing checks.
func (r *Remote) Seed(projectID, userID uint64, role string) membership.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	m := &membership.Membership{
		ID:                   r.nextID,
		ProjectID:            projectID,
		UserID:               userID,
		Role:                 role,
		AllocationPercentage: 100,
		IsActive:             true,
		JoinedAt:             time.Now(),
	}
	r.members[membership.Key{ProjectID: projectID, UserID: userID}] = m
	return *m
}

// Roster returns the active members of a project without counting a call.
func (r *Remote) Roster(projectID uint64) []membership.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked(projectID)
}

func (r *Remote) rosterLocked(projectID uint64) []membership.Membership {
	out := []membership.Membership{}
	for k, m := range r.members {
		if k.ProjectID == projectID && m.IsActive {
			out = append(out, *m)
		}
	}
	return out
}

func (r *Remote) ListProjectMembers(_ context.Context, projectID uint64) ([]membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ListCalls++
	if r.FailList != nil {
		return nil, r.FailList
	}
	return r.rosterLocked(projectID), nil
}

func (r *Remote) AddToProject(_ context.Context, req membership.AddRequest) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.AddCalls++
	if r.FailAdd != nil {
		return nil, r.FailAdd
	}

	key := membership.Key{ProjectID: req.ProjectID, UserID: req.UserID}
	if existing, ok := r.members[key]; ok {
		if existing.IsActive {
			return nil, membership.ErrDuplicateMembership
		}
		existing.Role = req.Role
		existing.IsTeamLead = req.IsTeamLead
		existing.AllocationPercentage = req.AllocationPercentage
		existing.IsActive = true
		m := *existing
		return &m, nil
	}

	r.nextID++
	m := &membership.Membership{
		ID:                   r.nextID,
		ProjectID:            req.ProjectID,
		UserID:               req.UserID,
		Role:                 req.Role,
		IsTeamLead:           req.IsTeamLead,
		AllocationPercentage: req.AllocationPercentage,
		IsActive:             true,
		JoinedAt:             time.Now(),
	}
	r.members[key] = m
	out := *m
	return &out, nil
}

func (r *Remote) UpdateMember(_ context.Context, req membership.UpdateRequest) (*membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UpdateCalls++
	if r.FailUpdate != nil {
		return nil, r.FailUpdate
	}

	m, ok := r.members[membership.Key{ProjectID: req.ProjectID, UserID: req.UserID}]
	if !ok || !m.IsActive {
		return nil, membership.ErrMemberNotFound
	}
	if req.Role != nil {
		m.Role = *req.Role
	}
	if req.IsTeamLead != nil {
		m.IsTeamLead = *req.IsTeamLead
	}
	if req.AllocationPercentage != nil {
		m.AllocationPercentage = *req.AllocationPercentage
	}
	out := *m
	return &out, nil
}

func (r *Remote) RemoveFromProject(_ context.Context, projectID, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.RemoveCalls++
	if r.FailRemove != nil {
		return r.FailRemove
	}

	m, ok := r.members[membership.Key{ProjectID: projectID, UserID: userID}]
	if !ok || !m.IsActive {
		return membership.ErrMemberNotFound
	}
	m.IsActive = false
	return nil
}
