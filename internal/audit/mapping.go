package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

const apiPrefix = "/api/v1"

// singletons are path segments that name one item rather than a collection.
var singletons = map[string]bool{"current": true, "me": true}

// ParseRoute returns action and resource for a request method and chi route pattern
// (e.g. PUT /api/v1/projects/{projectID} -> update project).
// Action is get, list, create, update or delete. Resource is the last literal path
// segment, singular, with dashes turned into underscores.
// Changing a member's role is mapped to role_changed on resource "user".
func ParseRoute(method, pattern string) ActionResource {
	path := strings.Trim(strings.TrimPrefix(pattern, apiPrefix), "/")
	if path == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if method == http.MethodPut && last == "role" && len(segments) >= 2 && isParam(segments[len(segments)-2]) {
		return ActionResource{Action: "role_changed", Resource: "user"}
	}

	item := false
	resource := ""
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if isParam(seg) || singletons[seg] {
			if i == len(segments)-1 {
				item = true
			}
			continue
		}
		resource = singular(seg)
		break
	}
	if resource == "" {
		resource = "unknown"
	}
	return ActionResource{Action: methodToAction(method, item), Resource: resource}
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func singular(seg string) string {
	seg = strings.ReplaceAll(seg, "-", "_")
	return strings.TrimSuffix(seg, "s")
}

func methodToAction(method string, item bool) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		if item {
			return "get"
		}
		return "list"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
