// Package allocation derives per-member utilization and fleet statistics
// from project rosters and user records. Nothing here is cached: views are
// rebuilt from the rosters on every call.
package allocation

import (
	"math"
	"sort"
	"strings"

	"github.com/yukikurage/team-allocation-api/internal/membership"
)

// Weekly capacity baselines in hours.
const (
	StandardWeeklyHours = 40
	ReducedWeeklyHours  = 35
)

// Utilization thresholds in percent.
const (
	overloadedAbove = 100
	busyAbove       = 90
	availableBelow  = 75
)

// Status buckets a member's utilization.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusBusy       Status = "busy"
	StatusOverloaded Status = "overloaded"
)

// Person is the user data the aggregator needs.
type Person struct {
	ID                     uint64   `json:"id"`
	Name                   string   `json:"name"`
	Email                  string   `json:"email"`
	Role                   string   `json:"role"`
	DepartmentID           uint64   `json:"department_id"`
	DomainID               uint64   `json:"domain_id"`
	ExperienceTier         string   `json:"experience_tier"`
	Skills                 []string `json:"skills"`
	BaseHourlyRate         float64  `json:"base_hourly_rate"`
	AvailabilityPercentage int      `json:"availability_percentage"`
}

// ProjectRef names a project.
type ProjectRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ProjectAssignment is one project a member works on.
type ProjectAssignment struct {
	ProjectID            uint64 `json:"project_id"`
	ProjectName          string `json:"project_name"`
	Role                 string `json:"role"`
	IsTeamLead           bool   `json:"is_team_lead"`
	AllocationPercentage int    `json:"allocation_percentage"`
}

// MemberView is the derived allocation of one person.
type MemberView struct {
	Person         Person              `json:"person"`
	Projects       []ProjectAssignment `json:"projects"`
	CapacityHours  float64             `json:"capacity_hours"`
	AllocatedHours float64             `json:"allocated_hours"`
	Utilization    float64             `json:"utilization"`
	Status         Status              `json:"status"`
}

// AvailableHours is capacity minus allocation; negative when overloaded.
func (v MemberView) AvailableHours() float64 {
	return v.CapacityHours - v.AllocatedHours
}

// Stats summarises a set of member views.
type Stats struct {
	Count              int     `json:"count"`
	AverageUtilization int     `json:"average_utilization"`
	AvailableHours     float64 `json:"available_hours"`
	OverloadedCount    int     `json:"overloaded_count"`
}

// Overview is a filtered set of views and the statistics over exactly that set.
type Overview struct {
	Members []MemberView `json:"members"`
	Stats   Stats        `json:"stats"`
}

// WeeklyCapacity returns the weekly hour baseline for a role.
func WeeklyCapacity(role string) float64 {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "manager", "admin":
		return ReducedWeeklyHours
	default:
		return StandardWeeklyHours
	}
}

// StatusFor buckets a utilization percentage.
func StatusFor(utilization float64) Status {
	switch {
	case utilization > overloadedAbove:
		return StatusOverloaded
	case utilization > busyAbove:
		return StatusBusy
	case utilization < availableBelow:
		return StatusAvailable
	default:
		return StatusBusy
	}
}

// ByUser inverts project rosters into each user's project list. Only active
// memberships are included; projects are ordered by id.
func ByUser(projects []ProjectRef, rosters map[uint64][]membership.Membership) map[uint64][]ProjectAssignment {
	names := make(map[uint64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	projectIDs := make([]uint64, 0, len(rosters))
	for id := range rosters {
		projectIDs = append(projectIDs, id)
	}
	sort.Slice(projectIDs, func(i, j int) bool { return projectIDs[i] < projectIDs[j] })

	out := make(map[uint64][]ProjectAssignment)
	for _, projectID := range projectIDs {
		for _, m := range rosters[projectID] {
			if !m.IsActive {
				continue
			}
			out[m.UserID] = append(out[m.UserID], ProjectAssignment{
				ProjectID:            projectID,
				ProjectName:          names[projectID],
				Role:                 m.Role,
				IsTeamLead:           m.IsTeamLead,
				AllocationPercentage: m.AllocationPercentage,
			})
		}
	}
	return out
}

// BuildViews computes a MemberView for every person, in input order.
func BuildViews(people []Person, projects []ProjectRef, rosters map[uint64][]membership.Membership) []MemberView {
	byUser := ByUser(projects, rosters)

	views := make([]MemberView, 0, len(people))
	for _, p := range people {
		views = append(views, buildView(p, byUser[p.ID]))
	}
	return views
}

func buildView(p Person, assignments []ProjectAssignment) MemberView {
	capacityHours := WeeklyCapacity(p.Role)

	totalPercent := 0
	for _, a := range assignments {
		totalPercent += a.AllocationPercentage
	}
	allocated := float64(totalPercent) * capacityHours / 100
	utilization := allocated / capacityHours * 100

	if assignments == nil {
		assignments = []ProjectAssignment{}
	}
	return MemberView{
		Person:         p,
		Projects:       assignments,
		CapacityHours:  capacityHours,
		AllocatedHours: allocated,
		Utilization:    utilization,
		Status:         StatusFor(utilization),
	}
}

// Statistics aggregates views. Callers pass the post-filter set.
func Statistics(views []MemberView) Stats {
	stats := Stats{Count: len(views)}
	if len(views) == 0 {
		return stats
	}

	total := 0.0
	for _, v := range views {
		total += v.Utilization
		stats.AvailableHours += v.AvailableHours()
		if v.Utilization > overloadedAbove {
			stats.OverloadedCount++
		}
	}
	stats.AverageUtilization = int(math.Round(total / float64(len(views))))
	return stats
}

// Build filters people, builds their views and computes statistics over the
// filtered set.
func Build(people []Person, projects []ProjectRef, rosters map[uint64][]membership.Membership, filter Filter) Overview {
	views := BuildViews(filter.People(people), projects, rosters)
	return Overview{Members: views, Stats: Statistics(views)}
}
