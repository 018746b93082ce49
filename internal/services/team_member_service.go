package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyProjectMember  = errors.New("user is already a member of this project")
	ErrTeamAtCapacity        = errors.New("project team is at capacity")
	ErrManagerLimitReached   = errors.New("project already has the maximum number of managers")
	ErrProjectMemberNotFound = errors.New("project member not found")
	ErrRoleRequired          = errors.New("role is required")
	ErrInvalidAllocation     = errors.New("allocation percentage must be between 0 and 100")
)

// MembershipObserver is told about every membership change and its outcome.
type MembershipObserver interface {
	ObserveMembershipOp(op, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveMembershipOp(string, string) {}

// TeamMemberService owns project rosters. It is the authority for the
// one-active-membership-per-pair rule and for the team-size ceiling.
type TeamMemberService struct {
	memberRepo  repository.TeamMemberRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	validator   capacity.Validator
	observer    MembershipObserver
	log         *zap.Logger
	now         func() time.Time
}

// NewTeamMemberService creates a new TeamMemberService
func NewTeamMemberService(
	memberRepo repository.TeamMemberRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	validator capacity.Validator,
	log *zap.Logger,
) *TeamMemberService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TeamMemberService{
		memberRepo:  memberRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		validator:   validator,
		observer:    nopObserver{},
		log:         log,
		now:         time.Now,
	}
}

// SetObserver installs a MembershipObserver, typically the metrics registry.
func (s *TeamMemberService) SetObserver(o MembershipObserver) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// AddToProjectInput represents input for adding a user to a project
type AddToProjectInput struct {
	ProjectID            uint64
	UserID               uint64
	Role                 string
	IsTeamLead           bool
	AllocationPercentage int
}

// UpdateMemberInput represents a partial update of a membership
type UpdateMemberInput struct {
	ProjectID            uint64
	UserID               uint64
	Role                 *string
	IsTeamLead           *bool
	AllocationPercentage *int
}

// ListProjectMembers returns the active roster of a project
func (s *TeamMemberService) ListProjectMembers(projectID uint64) ([]models.ProjectTeamMember, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListActiveByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return members, nil
}

// CapacityFor evaluates the current roster of a project for a proposed role
func (s *TeamMemberService) CapacityFor(projectID uint64, role string) (capacity.Result, error) {
	members, err := s.ListProjectMembers(projectID)
	if err != nil {
		return capacity.Result{}, err
	}
	return s.validator.Validate(seats(members), role), nil
}

// AddToProject adds a user to a project, reactivating a previous membership
// row when one exists
func (s *TeamMemberService) AddToProject(input AddToProjectInput) (member *models.ProjectTeamMember, err error) {
	defer func() { s.observe("add", err) }()

	role := strings.TrimSpace(input.Role)
	if role == "" {
		return nil, ErrRoleRequired
	}
	if input.AllocationPercentage < 0 || input.AllocationPercentage > 100 {
		return nil, ErrInvalidAllocation
	}

	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Roster read, admission and write share one transaction holding the
	// project row lock, so concurrent adds see each other's seats.
	err = s.memberRepo.WithProjectLock(project.ID, func(tx repository.TeamMemberRepository, locked *models.Project) error {
		roster, err := tx.ListActiveByProject(locked.ID)
		if err != nil {
			return fmt.Errorf("failed to list project members: %w", err)
		}
		for _, m := range roster {
			if m.UserID == input.UserID {
				return ErrAlreadyProjectMember
			}
		}
		switch err := s.validator.Check(seats(roster), role); {
		case errors.Is(err, capacity.ErrTeamAtCapacity):
			return ErrTeamAtCapacity
		case errors.Is(err, capacity.ErrManagerLimitReached):
			return ErrManagerLimitReached
		}

		existing, err := tx.Find(locked.ID, input.UserID)
		switch {
		case err == nil:
			existing.Role = role
			existing.IsTeamLead = input.IsTeamLead
			existing.AllocationPercentage = input.AllocationPercentage
			existing.JoinedAt = s.now()
			reactivated, err := tx.Reactivate(existing)
			if err != nil {
				return fmt.Errorf("failed to reactivate project member: %w", err)
			}
			if !reactivated {
				return ErrAlreadyProjectMember
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := &models.ProjectTeamMember{
				ProjectID:            locked.ID,
				UserID:               input.UserID,
				Role:                 role,
				IsTeamLead:           input.IsTeamLead,
				AllocationPercentage: input.AllocationPercentage,
				IsActive:             true,
				JoinedAt:             s.now(),
			}
			if err := tx.Create(created); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyProjectMember
				}
				return fmt.Errorf("failed to add project member: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up project member: %w", err)
		}

		if locked.ManagerID == nil && isManagerRole(role) {
			if err := tx.AssignManager(locked.ID, input.UserID); err != nil {
				return fmt.Errorf("failed to assign project manager: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	s.log.Info("project member added",
		zap.Uint64("project_id", input.ProjectID),
		zap.Uint64("user_id", input.UserID),
		zap.String("role", role),
	)
	return s.memberRepo.Find(input.ProjectID, input.UserID)
}

// UpdateMember changes role, lead flag or allocation of an active membership
func (s *TeamMemberService) UpdateMember(input UpdateMemberInput) (member *models.ProjectTeamMember, err error) {
	defer func() { s.observe("update", err) }()

	err = s.memberRepo.WithProjectLock(input.ProjectID, func(tx repository.TeamMemberRepository, _ *models.Project) error {
		current, err := tx.Find(input.ProjectID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectMemberNotFound
			}
			return fmt.Errorf("failed to look up project member: %w", err)
		}
		if !current.IsActive {
			return ErrProjectMemberNotFound
		}

		if input.Role != nil {
			role := strings.TrimSpace(*input.Role)
			if role == "" {
				return ErrRoleRequired
			}
			roster, err := tx.ListActiveByProject(input.ProjectID)
			if err != nil {
				return fmt.Errorf("failed to list project members: %w", err)
			}
			if err := s.validator.CheckRoleChange(seats(roster), current.Role, role); err != nil {
				return ErrManagerLimitReached
			}
			current.Role = role
		}
		if input.IsTeamLead != nil {
			current.IsTeamLead = *input.IsTeamLead
		}
		if input.AllocationPercentage != nil {
			if *input.AllocationPercentage < 0 || *input.AllocationPercentage > 100 {
				return ErrInvalidAllocation
			}
			current.AllocationPercentage = *input.AllocationPercentage
		}

		if err := tx.Save(current); err != nil {
			return fmt.Errorf("failed to update project member: %w", err)
		}
		member = current
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return member, nil
}

// RemoveFromProject deactivates a membership. Removing a user who is not an
// active member is not an error; removed reports whether anything changed.
func (s *TeamMemberService) RemoveFromProject(projectID, userID uint64) (removed bool, err error) {
	defer func() { s.observe("remove", err) }()

	if _, err := s.findProject(projectID); err != nil {
		return false, err
	}
	removed, err = s.memberRepo.Deactivate(projectID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove project member: %w", err)
	}
	if removed {
		s.log.Info("project member removed",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", userID),
		)
	}
	return removed, nil
}

func (s *TeamMemberService) findProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func (s *TeamMemberService) observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyProjectMember):
		outcome = "duplicate"
	case errors.Is(err, ErrTeamAtCapacity), errors.Is(err, ErrManagerLimitReached):
		outcome = "capacity"
	case errors.Is(err, ErrProjectNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProjectMemberNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrRoleRequired), errors.Is(err, ErrInvalidAllocation):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	s.observer.ObserveMembershipOp(op, outcome)
}

func isManagerRole(role string) bool {
	return strings.EqualFold(role, string(models.RoleManager))
}

func seats(members []models.ProjectTeamMember) []capacity.Seat {
	out := make([]capacity.Seat, len(members))
	for i, m := range members {
		out[i] = capacity.Seat{Role: m.Role, Active: m.IsActive}
	}
	return out
}
