package dto

import (
	"time"

	"github.com/yukikurage/team-allocation-api/internal/allocation"
	"github.com/yukikurage/team-allocation-api/internal/models"
	"github.com/yukikurage/team-allocation-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                     uint64          `json:"id"`
	Name                   string          `json:"name"`
	Email                  string          `json:"email"`
	Role                   models.UserRole `json:"role"`
	DepartmentID           uint64          `json:"department_id"`
	DomainID               uint64          `json:"domain_id"`
	ExperienceTier         string          `json:"experience_tier"`
	Skills                 []string        `json:"skills"`
	AnnualCTC              float64         `json:"annual_ctc"`
	BaseHourlyRate         float64         `json:"base_hourly_rate"`
	AvailabilityPercentage int             `json:"availability_percentage"`
	CreatedAt              time.Time       `json:"created_at"`
}

// UserSummaryDTO is the short form embedded in other resources
type UserSummaryDTO struct {
	ID    uint64          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

// UserListDTO is a page of users
type UserListDTO struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name                   string   `json:"name" binding:"required,max=255"`
	Email                  string   `json:"email" binding:"required,email"`
	Role                   string   `json:"role" binding:"omitempty,oneof=developer designer manager admin"`
	DepartmentID           uint64   `json:"department_id"`
	DomainID               uint64   `json:"domain_id"`
	ExperienceTier         string   `json:"experience_tier"`
	Skills                 []string `json:"skills" binding:"omitempty,dive,required,max=64"`
	AnnualCTC              float64  `json:"annual_ctc" binding:"gte=0"`
	BaseHourlyRate         *float64 `json:"base_hourly_rate" binding:"omitempty,gte=0"`
	AvailabilityPercentage *int     `json:"availability_percentage" binding:"omitempty,gte=0,lte=100"`
}

// ToUserDTO converts a user model to DTO
func ToUserDTO(user models.User) UserDTO {
	skills := user.Skills
	if skills == nil {
		skills = []string{}
	}
	return UserDTO{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		Role:                   user.Role,
		DepartmentID:           user.DepartmentID,
		DomainID:               user.DomainID,
		ExperienceTier:         user.ExperienceTier,
		Skills:                 skills,
		AnnualCTC:              user.AnnualCTC,
		BaseHourlyRate:         user.BaseHourlyRate,
		AvailabilityPercentage: user.AvailabilityPercentage,
		CreatedAt:              user.CreatedAt,
	}
}

// ToUserSummaryDTO converts a user model to its short form
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// ToPerson converts a user model to the allocation aggregator's input
func ToPerson(user models.User) allocation.Person {
	return allocation.Person{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		Role:                   string(user.Role),
		DepartmentID:           user.DepartmentID,
		DomainID:               user.DomainID,
		ExperienceTier:         user.ExperienceTier,
		Skills:                 user.Skills,
		BaseHourlyRate:         user.BaseHourlyRate,
		AvailabilityPercentage: user.AvailabilityPercentage,
	}
}
