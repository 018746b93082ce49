// Package capacity decides whether a project roster can admit another member.
package capacity

import (
	"errors"
	"strings"
)

const (
	DefaultMaxTeamSize        = 9
	DefaultNearCapacityMargin = 2

	roleManager = "manager"
)

var (
	ErrTeamAtCapacity      = errors.New("team is at capacity")
	ErrManagerLimitReached = errors.New("project already has the maximum number of managers")
)

// Seat is the part of a membership the validator looks at.
type Seat struct {
	Role   string
	Active bool
}

// Result describes how a roster stands against the configured ceilings.
type Result struct {
	CanAdd         bool `json:"can_add"`
	CanAddManager  bool `json:"can_add_manager"`
	IsAtCapacity   bool `json:"is_at_capacity"`
	IsNearCapacity bool `json:"is_near_capacity"`
	ActiveCount    int  `json:"active_count"`
	MaxTeamSize    int  `json:"max_team_size"`
	ManagerCount   int  `json:"manager_count"`
	// MaxManagers is zero when no manager ceiling is configured.
	MaxManagers int `json:"max_managers"`
}

// Validator holds the roster ceilings. The zero value uses the defaults and
// no manager ceiling.
type Validator struct {
	MaxTeamSize        int
	NearCapacityMargin int
	MaxManagers        int
}

// New returns a Validator with the default team-size ceiling and the given
// manager ceiling (0 for none).
func New(maxManagers int) Validator {
	return Validator{
		MaxTeamSize:        DefaultMaxTeamSize,
		NearCapacityMargin: DefaultNearCapacityMargin,
		MaxManagers:        maxManagers,
	}
}

func (v Validator) maxTeamSize() int {
	if v.MaxTeamSize <= 0 {
		return DefaultMaxTeamSize
	}
	return v.MaxTeamSize
}

func (v Validator) margin() int {
	if v.NearCapacityMargin <= 0 {
		return DefaultNearCapacityMargin
	}
	return v.NearCapacityMargin
}

// Validate evaluates a roster snapshot for adding a member with proposedRole.
func (v Validator) Validate(roster []Seat, proposedRole string) Result {
	ceiling := v.maxTeamSize()
	res := Result{MaxTeamSize: ceiling, MaxManagers: v.MaxManagers}

	for _, s := range roster {
		if !s.Active {
			continue
		}
		res.ActiveCount++
		if isManager(s.Role) {
			res.ManagerCount++
		}
	}

	res.IsAtCapacity = res.ActiveCount >= ceiling
	res.IsNearCapacity = !res.IsAtCapacity && res.ActiveCount >= ceiling-v.margin()
	res.CanAddManager = v.MaxManagers <= 0 || res.ManagerCount < v.MaxManagers
	res.CanAdd = !res.IsAtCapacity
	if isManager(proposedRole) && !res.CanAddManager {
		res.CanAdd = false
	}
	return res
}

// Check is Validate reduced to an error: nil when the member can be added.
func (v Validator) Check(roster []Seat, proposedRole string) error {
	res := v.Validate(roster, proposedRole)
	switch {
	case res.IsAtCapacity:
		return ErrTeamAtCapacity
	case !res.CanAdd:
		return ErrManagerLimitReached
	}
	return nil
}

// CheckRoleChange reports whether a member already on the roster may move
// from one role to another. Headcount is unchanged, so only the manager
// ceiling applies, and only when the member is being promoted to manager.
func (v Validator) CheckRoleChange(roster []Seat, fromRole, toRole string) error {
	if !isManager(toRole) || isManager(fromRole) {
		return nil
	}
	if !v.Validate(roster, toRole).CanAddManager {
		return ErrManagerLimitReached
	}
	return nil
}

func isManager(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), roleManager)
}
