package allocation

import "strings"

// Predicate selects people.
type Predicate func(Person) bool

// All combines predicates with AND. No predicates selects everyone.
func All(preds ...Predicate) Predicate {
	return func(p Person) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// MatchesSearch matches name, email or any skill, case-insensitively.
func MatchesSearch(text string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(text))
	return func(p Person) bool {
		if needle == "" {
			return true
		}
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Email), needle) {
			return true
		}
		for _, skill := range p.Skills {
			if strings.Contains(strings.ToLower(skill), needle) {
				return true
			}
		}
		return false
	}
}

// InDepartment matches a department id; 0 matches any.
func InDepartment(id uint64) Predicate {
	return func(p Person) bool {
		return id == 0 || p.DepartmentID == id
	}
}

// InDomain matches a domain id; 0 matches any.
func InDomain(id uint64) Predicate {
	return func(p Person) bool {
		return id == 0 || p.DomainID == id
	}
}

// HasRole matches a role case-insensitively; "" and "all" match any.
func HasRole(role string) Predicate {
	role = strings.TrimSpace(role)
	return func(p Person) bool {
		return role == "" || strings.EqualFold(role, "all") || strings.EqualFold(p.Role, role)
	}
}

// Filter is the dashboard's member filter.
type Filter struct {
	Search       string `form:"search" json:"search"`
	DepartmentID uint64 `form:"department_id" json:"department_id"`
	DomainID     uint64 `form:"domain_id" json:"domain_id"`
	Role         string `form:"role" json:"role"`
}

// Predicate composes the filter's fields.
func (f Filter) Predicate() Predicate {
	return All(
		MatchesSearch(f.Search),
		InDepartment(f.DepartmentID),
		InDomain(f.DomainID),
		HasRole(f.Role),
	)
}

// People returns the people the filter selects, preserving order.
func (f Filter) People(people []Person) []Person {
	pred := f.Predicate()
	out := make([]Person, 0, len(people))
	for _, p := range people {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Views returns the views whose person the filter selects, preserving order.
func (f Filter) Views(views []MemberView) []MemberView {
	pred := f.Predicate()
	out := make([]MemberView, 0, len(views))
	for _, v := range views {
		if pred(v.Person) {
			out = append(out, v)
		}
	}
	return out
}
