// Package suggest guesses a role, domain and department from free text such
// as a job title or display name. The guesses are hints for pre-filling a
// form; they are sometimes wrong and nothing authoritative depends on them.
package suggest

import "strings"

// Suggestion holds the hints derived from a name. Empty fields mean no guess.
type Suggestion struct {
	Role       string   `json:"role,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Department string   `json:"department,omitempty"`
	Matched    []string `json:"matched,omitempty"`
}

type rule struct {
	keywords []string
	value    string
}

// first matching rule wins, so more specific keywords come first
var roleRules = []rule{
	{[]string{"admin", "administrator"}, "admin"},
	{[]string{"manager", "lead", "head", "pm", "scrum"}, "manager"},
	{[]string{"design", "ux", "ui"}, "designer"},
	{[]string{"developer", "engineer", "dev", "programmer", "sde"}, "developer"},
}

var domainRules = []rule{
	{[]string{"frontend", "front-end", "react", "angular", "ui"}, "frontend"},
	{[]string{"backend", "back-end", "api", "golang", "java"}, "backend"},
	{[]string{"mobile", "android", "ios", "flutter"}, "mobile"},
	{[]string{"data", "ml", "analytics", "ai"}, "data"},
	{[]string{"qa", "test", "quality"}, "qa"},
	{[]string{"devops", "infra", "sre", "cloud"}, "infrastructure"},
}

var departmentRules = []rule{
	{[]string{"design", "ux", "ui"}, "design"},
	{[]string{"manager", "pm", "scrum", "head"}, "management"},
	{[]string{"admin", "hr", "finance"}, "operations"},
	{[]string{"developer", "engineer", "dev", "qa", "devops", "sre"}, "engineering"},
}

// FromName derives hints from name. Matching is on whole words,
// case-insensitively.
func FromName(name string) Suggestion {
	words := tokenize(name)
	var s Suggestion
	s.Role, s.Matched = match(roleRules, words, s.Matched)
	s.Domain, s.Matched = match(domainRules, words, s.Matched)
	s.Department, s.Matched = match(departmentRules, words, s.Matched)
	return s
}

func match(rules []rule, words map[string]bool, matched []string) (string, []string) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if words[kw] || prefixMatch(words, kw) {
				return r.value, append(matched, kw)
			}
		}
	}
	return "", matched
}

// prefixMatch lets stems like "design" match "designer" and "designing".
func prefixMatch(words map[string]bool, stem string) bool {
	if len(stem) < 5 {
		return false
	}
	for w := range words {
		if strings.HasPrefix(w, stem) {
			return true
		}
	}
	return false
}

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	})
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
