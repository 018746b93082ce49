package dto

import (
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"github.com/yukikurage/team-allocation-api/internal/models"
)

// Roster responses use the client membership shape (camelCase), which is
// what the dashboard and teamclient decode.

// TeamMemberListDTO is the body of GET /project-team-members/project/:projectId
type TeamMemberListDTO struct {
	Members []membership.Membership `json:"members"`
}

// UpdateTeamMemberRequest is the body of PATCH /project-team-members/...
type UpdateTeamMemberRequest struct {
	Role                 *string `json:"role" binding:"omitempty,min=1,max=50"`
	IsTeamLead           *bool   `json:"isTeamLead"`
	AllocationPercentage *int    `json:"allocationPercentage" binding:"omitempty,gte=0,lte=100"`
}

// ToMembership converts a membership row to the client shape. The user
// summary is included when the relation was loaded.
func ToMembership(member models.ProjectTeamMember) membership.Membership {
	out := membership.Membership{
		ID:                   member.ID,
		ProjectID:            member.ProjectID,
		UserID:               member.UserID,
		Role:                 member.Role,
		IsTeamLead:           member.IsTeamLead,
		AllocationPercentage: member.AllocationPercentage,
		IsActive:             member.IsActive,
		JoinedAt:             member.JoinedAt,
	}
	if member.User.ID != 0 {
		out.User = &membership.MemberUser{
			ID:    member.User.ID,
			Name:  member.User.Name,
			Email: member.User.Email,
			Role:  string(member.User.Role),
		}
	}
	return out
}

// ToMemberships converts a roster
func ToMemberships(members []models.ProjectTeamMember) []membership.Membership {
	out := make([]membership.Membership, len(members))
	for i, m := range members {
		out[i] = ToMembership(m)
	}
	return out
}

// AddTeamMemberRequest is the body of POST /project-team-members/add-to-project.
// A missing allocation defaults to 100.
type AddTeamMemberRequest struct {
	ProjectID            uint64 `json:"projectId" binding:"required"`
	UserID               uint64 `json:"userId" binding:"required"`
	Role                 string `json:"role" binding:"required,max=50"`
	IsTeamLead           bool   `json:"isTeamLead"`
	AllocationPercentage *int   `json:"allocationPercentage" binding:"omitempty,gte=0,lte=100"`
}
