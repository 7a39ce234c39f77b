package auth

import (
	"net/http"
	"strings"
)

// Rule requires Role for requests whose path matches Path. A Path ending in
// "/" matches as a prefix. Empty Methods matches every method.
type Rule struct {
	Path    string
	Methods []string
	Role    Role
}

func (r Rule) matches(req *http.Request) bool {
	path := req.URL.Path
	if strings.HasSuffix(r.Path, "/") {
		if !strings.HasPrefix(path, r.Path) {
			return false
		}
	} else if path != r.Path {
		return false
	}
	if len(r.Methods) == 0 {
		return true
	}
	for _, method := range r.Methods {
		if req.Method == method {
			return true
		}
	}
	return false
}

var readMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

// DefaultRules guards ingestion and exports; dashboard reads outside /api/
// stay public for the map frontend.
func DefaultRules() []Rule {
	return []Rule{
		{Path: "/api/v1/ingest", Role: RoleAdmin},
		{Path: "/api/v1/exports/", Role: RoleViewer},
		{Path: "/api/", Methods: readMethods, Role: RoleViewer},
		{Path: "/api/", Role: RoleOperator},
	}
}

// Policy resolves the role a request needs. The first matching rule wins.
type Policy struct {
	exempt map[string]struct{}
	rules  []Rule
}

// NewPolicy builds a policy. A nil rules slice uses DefaultRules.
func NewPolicy(exemptPaths []string, rules []Rule) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return Policy{exempt: set, rules: rules}
}

// IsExempt reports whether a request skips authentication entirely.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	_, ok := p.exempt[r.URL.Path]
	return ok
}

// RequiredRole returns the role for r, or false when the route is public.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	for _, rule := range p.rules {
		if rule.matches(r) {
			return rule.Role, true
		}
	}
	return "", false
}
