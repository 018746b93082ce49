package repository

import (
	"github.com/yukikurage/team-allocation-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List retrieves users with filtering and pagination. A zero PageSize
	// returns every match.
	List(filter UserFilter) ([]models.User, int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search       string
	DepartmentID uint64
	DomainID     uint64
	Role         models.UserRole
	Page         int
	PageSize     int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List retrieves projects, optionally restricted to one status
	List(status *models.ProjectStatus) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error
}

// TeamMemberRepository defines the interface for project membership data access
type TeamMemberRepository interface {
	// ListActiveByProject lists the active roster of a project with users preloaded
	ListActiveByProject(projectID uint64) ([]models.ProjectTeamMember, error)

	// ListActive lists every active membership
	ListActive() ([]models.ProjectTeamMember, error)

	// Find finds the membership row for a (project, user) pair, active or not
	Find(projectID, userID uint64) (*models.ProjectTeamMember, error)

	// Create inserts a new membership
	Create(member *models.ProjectTeamMember) error

	// Save updates an existing membership
	Save(member *models.ProjectTeamMember) error

	// WithProjectLock runs fn in a transaction that holds a row lock on the
	// project. The repository handed to fn is bound to that transaction.
	// It returns gorm.ErrRecordNotFound when the project does not exist.
	WithProjectLock(projectID uint64, fn func(tx TeamMemberRepository, project *models.Project) error) error

	// Reactivate turns an inactive membership row back on with the fields of
	// member. It reports false when the row was already active.
	Reactivate(member *models.ProjectTeamMember) (bool, error)

	// AssignManager sets the project manager when the project has none
	AssignManager(projectID, userID uint64) error

	// Deactivate marks the active membership inactive and, when the user was
	// the project manager, hands the project to another active manager.
	// It reports whether an active membership existed.
	Deactivate(projectID, userID uint64) (bool, error)
}
