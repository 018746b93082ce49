// Package membership is the client-side source of project rosters. The
// backend is authoritative; the Store keeps a disposable per-project cache
// that is rebuilt from the backend after every write.
package membership

import (
	"context"
	"time"

	"github.com/yukikurage/team-allocation-api/internal/capacity"
)

// MemberUser is the user summary embedded in a roster entry.
type MemberUser struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Membership is one (project, user) assignment as reported by the backend.
type Membership struct {
	ID                   uint64      `json:"id"`
	ProjectID            uint64      `json:"projectId"`
	UserID               uint64      `json:"userId"`
	Role                 string      `json:"role"`
	IsTeamLead           bool        `json:"isTeamLead"`
	AllocationPercentage int         `json:"allocationPercentage"`
	IsActive             bool        `json:"isActive"`
	JoinedAt             time.Time   `json:"joinedAt"`
	User                 *MemberUser `json:"user,omitempty"`
}

// AddRequest is the payload for adding a user to a project.
type AddRequest struct {
	ProjectID            uint64 `json:"projectId" validate:"required"`
	UserID               uint64 `json:"userId" validate:"required"`
	Role                 string `json:"role" validate:"required,max=50"`
	IsTeamLead           bool   `json:"isTeamLead"`
	AllocationPercentage int    `json:"allocationPercentage" validate:"min=0,max=100"`
}

// UpdateRequest changes the role, lead flag or allocation of an existing
// membership. Nil fields are left unchanged.
type UpdateRequest struct {
	ProjectID            uint64  `json:"-" validate:"required"`
	UserID               uint64  `json:"-" validate:"required"`
	Role                 *string `json:"role,omitempty" validate:"omitempty,min=1,max=50"`
	IsTeamLead           *bool   `json:"isTeamLead,omitempty"`
	AllocationPercentage *int    `json:"allocationPercentage,omitempty" validate:"omitempty,min=0,max=100"`
}

// Remote is the backend the Store reads from and writes to.
//
// Implementations report a uniqueness rejection as ErrDuplicateMembership,
// a capacity rejection as ErrCapacityExceeded, a missing membership as
// ErrMemberNotFound and anything else as a *TransportError.
type Remote interface {
	ListProjectMembers(ctx context.Context, projectID uint64) ([]Membership, error)
	AddToProject(ctx context.Context, req AddRequest) (*Membership, error)
	UpdateMember(ctx context.Context, req UpdateRequest) (*Membership, error)
	RemoveFromProject(ctx context.Context, projectID, userID uint64) error
}

// Key identifies a membership.
type Key struct {
	ProjectID uint64
	UserID    uint64
}

// Find returns the active membership of userID in roster, if any.
func Find(roster []Membership, userID uint64) (Membership, bool) {
	for _, m := range roster {
		if m.UserID == userID && m.IsActive {
			return m, true
		}
	}
	return Membership{}, false
}

// Active filters roster down to active memberships.
func Active(roster []Membership) []Membership {
	out := make([]Membership, 0, len(roster))
	for _, m := range roster {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out
}

// Seats converts a roster for the capacity validator.
func Seats(roster []Membership) []capacity.Seat {
	out := make([]capacity.Seat, len(roster))
	for i, m := range roster {
		out[i] = capacity.Seat{Role: m.Role, Active: m.IsActive}
	}
	return out
}
