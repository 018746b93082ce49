package repository

import (
	"errors"

	"github.com/yukikurage/team-allocation-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamMemberRepository is a GORM implementation of TeamMemberRepository
type GormTeamMemberRepository struct {
	db *gorm.DB
}

// NewTeamMemberRepository creates a new TeamMemberRepository
func NewTeamMemberRepository(db *gorm.DB) TeamMemberRepository {
	return &GormTeamMemberRepository{db: db}
}

// ListActiveByProject lists the active roster of a project
func (r *GormTeamMemberRepository) ListActiveByProject(projectID uint64) ([]models.ProjectTeamMember, error) {
	var members []models.ProjectTeamMember
	err := r.db.Preload("User").
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListActive lists every active membership
func (r *GormTeamMemberRepository) ListActive() ([]models.ProjectTeamMember, error) {
	var members []models.ProjectTeamMember
	err := r.db.Where("is_active = ?", true).
		Order("project_id ASC, joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Find finds the membership row for a (project, user) pair
func (r *GormTeamMemberRepository) Find(projectID, userID uint64) (*models.ProjectTeamMember, error) {
	var member models.ProjectTeamMember
	err := r.db.Preload("User").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Create inserts a new membership
func (r *GormTeamMemberRepository) Create(member *models.ProjectTeamMember) error {
	return r.db.Omit("Project", "User").Create(member).Error
}

// Save updates an existing membership
func (r *GormTeamMemberRepository) Save(member *models.ProjectTeamMember) error {
	return r.db.Omit("Project", "User").Save(member).Error
}

// WithProjectLock runs fn against a transaction-bound repository while the
// project row is locked for update
func (r *GormTeamMemberRepository) WithProjectLock(projectID uint64, fn func(tx TeamMemberRepository, project *models.Project) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, projectID).Error; err != nil {
			return err
		}
		return fn(&GormTeamMemberRepository{db: tx}, &project)
	})
}

// Reactivate switches an inactive membership back on. The is_active guard
// makes concurrent re-adds of the same pair resolve to a single winner.
func (r *GormTeamMemberRepository) Reactivate(member *models.ProjectTeamMember) (bool, error) {
	res := r.db.Model(&models.ProjectTeamMember{}).
		Where("id = ? AND is_active = ?", member.ID, false).
		Updates(map[string]any{
			"role":                  member.Role,
			"is_team_lead":          member.IsTeamLead,
			"allocation_percentage": member.AllocationPercentage,
			"joined_at":             member.JoinedAt,
			"is_active":             true,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AssignManager sets manager_id on a project that has no manager
func (r *GormTeamMemberRepository) AssignManager(projectID, userID uint64) error {
	return r.db.Model(&models.Project{}).
		Where("id = ? AND manager_id IS NULL", projectID).
		Update("manager_id", userID).Error
}

// Deactivate marks a membership inactive and reassigns the project manager
// in a single transaction
func (r *GormTeamMemberRepository) Deactivate(projectID, userID uint64) (bool, error) {
	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectTeamMember{}).
			Where("project_id = ? AND user_id = ? AND is_active = ?", projectID, userID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true

		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return err
		}
		if project.ManagerID == nil || *project.ManagerID != userID {
			return nil
		}

		// Prefer an active manager-role member, team leads first.
		var next models.ProjectTeamMember
		err := tx.Where("project_id = ? AND is_active = ? AND role = ?", projectID, true, string(models.RoleManager)).
			Order("is_team_lead DESC, joined_at ASC, id ASC").
			First(&next).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Model(&project).Update("manager_id", nil).Error
		case err != nil:
			return err
		}
		return tx.Model(&project).Update("manager_id", next.UserID).Error
	})
	return removed, err
}
