package services

import (
	"fmt"

	"github.com/yukikurage/team-allocation-api/internal/allocation"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"github.com/yukikurage/team-allocation-api/internal/repository"
)

// AllocationService builds the allocation overview from stored rosters
type AllocationService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	memberRepo  repository.TeamMemberRepository
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	memberRepo repository.TeamMemberRepository,
) *AllocationService {
	return &AllocationService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
	}
}

// Overview derives member views and statistics for the people the filter
// selects. Statistics cover exactly the returned members.
func (s *AllocationService) Overview(filter allocation.Filter) (allocation.Overview, error) {
	users, _, err := s.userRepo.List(repository.UserFilter{})
	if err != nil {
		return allocation.Overview{}, fmt.Errorf("failed to list users: %w", err)
	}
	projects, err := s.projectRepo.List(nil)
	if err != nil {
		return allocation.Overview{}, fmt.Errorf("failed to list projects: %w", err)
	}
	members, err := s.memberRepo.ListActive()
	if err != nil {
		return allocation.Overview{}, fmt.Errorf("failed to list memberships: %w", err)
	}

	people := make([]allocation.Person, len(users))
	for i, u := range users {
		people[i] = dto.ToPerson(u)
	}
	refs := make([]allocation.ProjectRef, len(projects))
	for i, p := range projects {
		refs[i] = allocation.ProjectRef{ID: p.ID, Name: p.Name}
	}
	rosters := make(map[uint64][]membership.Membership)
	for _, m := range members {
		rosters[m.ProjectID] = append(rosters[m.ProjectID], dto.ToMembership(m))
	}

	return allocation.Build(people, refs, rosters, filter), nil
}
