package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
	ErrInvalidDateRange     = errors.New("end date must not be before start date")
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name      string
	Status    models.ProjectStatus
	ManagerID *uint64
	Budget    float64
	StartDate *time.Time
	EndDate   *time.Time
}

func validStatus(status models.ProjectStatus) bool {
	switch status {
	case models.ProjectStatusPlanning, models.ProjectStatusActive, models.ProjectStatusOnHold, models.ProjectStatusCompleted:
		return true
	}
	return false
}

// CreateProject validates and stores a project
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	if !validStatus(status) {
		return nil, ErrInvalidProjectStatus
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrInvalidDateRange
	}

	if input.ManagerID != nil {
		if _, err := s.userRepo.FindByID(*input.ManagerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to load manager: %w", err)
		}
	}

	project := &models.Project{
		Name:      name,
		Status:    status,
		ManagerID: input.ManagerID,
		Budget:    input.Budget,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.GetProject(project.ID)
}

// GetProject returns a project by ID
func (s *ProjectService) GetProject(id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

// ListProjects returns projects, optionally restricted to one status
func (s *ProjectService) ListProjects(status *models.ProjectStatus) ([]models.Project, error) {
	if status != nil && !validStatus(*status) {
		return nil, ErrInvalidProjectStatus
	}
	projects, err := s.projectRepo.List(status)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
