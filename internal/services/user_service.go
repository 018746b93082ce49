package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/repository"
	"github.com/yukikurage/team-allocation-api/internal/salary"
	"github.com/yukikurage/team-allocation-api/internal/suggest"
	"gorm.io/gorm"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrEmailTaken          = errors.New("email is already in use")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidTier         = errors.New("invalid experience tier")
	ErrInvalidAvailability = errors.New("availability percentage must be between 0 and 100")
	ErrInvalidCTC          = errors.New("annual CTC must not be negative")
)

// UserService handles user business logic
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents input for creating a user. Nil optional fields
// take their defaults; an empty role or tier falls back to a suggestion
// derived from the name.
type CreateUserInput struct {
	Name                   string
	Email                  string
	Role                   string
	DepartmentID           uint64
	DomainID               uint64
	ExperienceTier         string
	Skills                 []string
	AnnualCTC              float64
	BaseHourlyRate         *float64
	AvailabilityPercentage *int
}

// ListUsersInput represents filters for listing users
type ListUsersInput = repository.UserFilter

// CreateUser validates and stores a new user. When a CTC is given and no
// explicit rate, the base hourly rate is derived from the salary breakdown.
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	role := models.UserRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if role == "" {
		role = models.RoleDeveloper
		if hint := suggest.FromName(name); hint.Role != "" {
			role = models.UserRole(hint.Role)
		}
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	tier := salary.TierE1
	if input.ExperienceTier != "" {
		t, ok := salary.ParseTier(input.ExperienceTier)
		if !ok {
			return nil, ErrInvalidTier
		}
		tier = t
	}

	availability := 100
	if input.AvailabilityPercentage != nil {
		availability = *input.AvailabilityPercentage
	}
	if availability < 0 || availability > 100 {
		return nil, ErrInvalidAvailability
	}
	if input.AnnualCTC < 0 {
		return nil, ErrInvalidCTC
	}

	rate := 0.0
	switch {
	case input.BaseHourlyRate != nil:
		rate = *input.BaseHourlyRate
	case input.AnnualCTC > 0:
		rate = salary.HourlyRate(input.AnnualCTC, tier)
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &models.User{
		Name:                   name,
		Email:                  email,
		Role:                   role,
		DepartmentID:           input.DepartmentID,
		DomainID:               input.DomainID,
		ExperienceTier:         string(tier),
		Skills:                 input.Skills,
		AnnualCTC:              input.AnnualCTC,
		BaseHourlyRate:         rate,
		AvailabilityPercentage: availability,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// ListUsers returns users matching the filter and the total match count
func (s *UserService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	if input.Role != "" && !input.Role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	users, total, err := s.userRepo.List(input)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
