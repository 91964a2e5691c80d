package reddit

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	oauthBase    = "https://oauth.reddit.com"
	tokenBaseURL = "https://www.reddit.com"
)

// Endpoint holds the path template of an API operation and whether it needs a user account.
type Endpoint struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// Expand fills the {placeholders} of the path template in order of appearance.
// Each argument is path-escaped; the {ids} list placeholder escapes every
// comma-separated element. Placeholders without an argument are left as is.
func (e Endpoint) Expand(args ...string) string {
	var b strings.Builder
	rest := e.Path
	for _, a := range args {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			break
		}
		end += start
		b.WriteString(rest[:start])
		if rest[start:end+1] == "{ids}" {
			b.WriteString(escapeList(a))
		} else {
			b.WriteString(url.PathEscape(a))
		}
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

func escapeList(list string) string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, ",")
}

// EndpointPath returns the expanded path for a named operation, or an error if unknown.
func EndpointPath(operation string, args ...string) (string, error) {
	ep, ok := Endpoints[operation]
	if !ok {
		return "", fmt.Errorf("unknown operation: %s", operation)
	}
	return ep.Expand(args...), nil
}

// Endpoints maps operation names to Reddit live-thread API paths.
var Endpoints = map[string]Endpoint{
	"live_about":          {Name: "live_about", Path: "live/{id}/about"},
	"live_update":         {Name: "live_update", Path: "live/{id}/updates/{update_id}"},
	"live_contributors":   {Name: "live_contributors", Path: "live/{id}/contributors"},
	"live_info":           {Name: "live_info", Path: "api/live/by_id/{ids}"},
	"live_now":            {Name: "live_now", Path: "api/live/happening_now"},
	"user_about":          {Name: "user_about", Path: "user/{user}/about"},
	"live_add_update":     {Name: "live_add_update", Path: "api/live/{id}/update", RequiresAuth: true},
	"live_close":          {Name: "live_close", Path: "api/live/{id}/close_thread", RequiresAuth: true},
	"live_edit":           {Name: "live_edit", Path: "api/live/{id}/edit", RequiresAuth: true},
	"live_strike":         {Name: "live_strike", Path: "api/live/{id}/strike_update", RequiresAuth: true},
	"live_delete":         {Name: "live_delete", Path: "api/live/{id}/delete_update", RequiresAuth: true},
	"live_invite":         {Name: "live_invite", Path: "api/live/{id}/invite_contributor", RequiresAuth: true},
	"live_accept_invite":  {Name: "live_accept_invite", Path: "api/live/{id}/accept_contributor_invite", RequiresAuth: true},
	"live_leave":          {Name: "live_leave", Path: "api/live/{id}/leave_contributor", RequiresAuth: true},
	"live_remove_contrib": {Name: "live_remove_contrib", Path: "api/live/{id}/rm_contributor", RequiresAuth: true},
	"live_remove_invite":  {Name: "live_remove_invite", Path: "api/live/{id}/rm_contributor_invite", RequiresAuth: true},
	"live_update_perms":   {Name: "live_update_perms", Path: "api/live/{id}/set_contributor_permissions", RequiresAuth: true},
	"live_report":         {Name: "live_report", Path: "api/live/{id}/report", RequiresAuth: true},
	"live_create":         {Name: "live_create", Path: "api/live/create", RequiresAuth: true},
}

// requiresAuth returns true for endpoints that need a real user account.
func requiresAuth(endpoint string) bool {
	return Endpoints[endpoint].RequiresAuth
}
