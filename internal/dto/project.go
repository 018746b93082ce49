package dto

import (
	"time"

	"github.com/yukikurage/team-allocation-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID        uint64               `json:"id"`
	Name      string               `json:"name"`
	Status    models.ProjectStatus `json:"status"`
	ManagerID *uint64              `json:"manager_id"`
	Manager   *UserSummaryDTO      `json:"manager,omitempty"`
	Budget    float64              `json:"budget"`
	StartDate *time.Time           `json:"start_date"`
	EndDate   *time.Time           `json:"end_date"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CreateProjectRequest is the body of POST /projects
type CreateProjectRequest struct {
	Name      string     `json:"name" binding:"required,max=255"`
	Status    string     `json:"status" binding:"omitempty,oneof=planning active on_hold completed"`
	ManagerID *uint64    `json:"manager_id"`
	Budget    float64    `json:"budget" binding:"gte=0"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ToProjectDTO converts a project model to DTO
func ToProjectDTO(project models.Project) ProjectDTO {
	out := ProjectDTO{
		ID:        project.ID,
		Name:      project.Name,
		Status:    project.Status,
		ManagerID: project.ManagerID,
		Budget:    project.Budget,
		StartDate: project.StartDate,
		EndDate:   project.EndDate,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
	if project.Manager != nil {
		manager := ToUserSummaryDTO(*project.Manager)
		out.Manager = &manager
	}
	return out
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}
