package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

type Project struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Status    ProjectStatus  `gorm:"type:varchar(20);not null;default:'planning'" json:"status"`
	ManagerID *uint64        `gorm:"index" json:"manager_id"`
	Budget    float64        `json:"budget"`
	StartDate *time.Time     `json:"start_date"`
	EndDate   *time.Time     `json:"end_date"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Manager *User               `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Members []ProjectTeamMember `gorm:"foreignKey:ProjectID" json:"-"`
}
