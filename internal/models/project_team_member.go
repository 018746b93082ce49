package models

import "time"

// ProjectTeamMember assigns a user to a project. A row is never deleted:
// removal clears IsActive and a later add reactivates the same row, so the
// (project, user) pair stays unique.
type ProjectTeamMember struct {
	ID                   uint64    `gorm:"primarykey" json:"id"`
	ProjectID            uint64    `gorm:"not null;uniqueIndex:uk_project_user" json:"projectId"`
	UserID               uint64    `gorm:"not null;uniqueIndex:uk_project_user;index:idx_team_members_user_id" json:"userId"`
	Role                 string    `gorm:"type:varchar(50);not null" json:"role"`
	IsTeamLead           bool      `gorm:"not null;default:false" json:"isTeamLead"`
	AllocationPercentage int       `gorm:"not null;default:100" json:"allocationPercentage"`
	IsActive             bool      `gorm:"not null;default:true" json:"isActive"`
	JoinedAt             time.Time `json:"joinedAt"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"-"`
}
