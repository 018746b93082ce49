package repository

import (
	"github.com/yukikurage/team-allocation-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID with its manager preloaded
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Manager").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects ordered by name
func (r *GormProjectRepository) List(status *models.ProjectStatus) ([]models.Project, error) {
	query := r.db.Preload("Manager").Order("name ASC, id ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit("Manager").Save(project).Error
}
