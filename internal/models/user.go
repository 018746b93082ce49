package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleDeveloper UserRole = "developer"
	RoleDesigner  UserRole = "designer"
	RoleManager   UserRole = "manager"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDeveloper, RoleDesigner, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                     uint64         `gorm:"primarykey" json:"id"`
	Name                   string         `gorm:"type:varchar(255);not null" json:"name"`
	Email                  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role                   UserRole       `gorm:"type:varchar(20);not null;default:'developer'" json:"role"`
	DepartmentID           uint64         `gorm:"index" json:"department_id"`
	DomainID               uint64         `gorm:"index" json:"domain_id"`
	ExperienceTier         string         `gorm:"type:varchar(10);not null;default:'E1'" json:"experience_tier"`
	Skills                 []string       `gorm:"serializer:json;type:text" json:"skills"`
	AnnualCTC              float64        `json:"annual_ctc"`
	BaseHourlyRate         float64        `json:"base_hourly_rate"`
	AvailabilityPercentage int            `gorm:"not null;default:100" json:"availability_percentage"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []ProjectTeamMember `gorm:"foreignKey:UserID" json:"-"`
}
