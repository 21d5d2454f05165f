package routes

import "net/http"

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	RegisterWith(mux, nil, groups...)
}

// RegisterWith adds all routes from the given groups to the mux, passing each
// handler through wrap when it is non-nil.
func RegisterWith(mux *http.ServeMux, wrap Wrapper, groups ...Group) {
	walk(groups, func(pattern string, route Route) {
		handler := route.Handler
		if wrap != nil {
			handler = wrap(pattern, handler)
		}
		mux.HandleFunc(pattern, handler)
	})
}

// Patterns returns the mux patterns the groups would register, in order.
func Patterns(groups ...Group) []string {
	var patterns []string
	walk(groups, func(pattern string, _ Route) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

func walk(groups []Group, fn func(pattern string, route Route)) {
	for _, group := range groups {
		walkGroup("", group, fn)
	}
}

func walkGroup(parentPrefix string, group Group, fn func(string, Route)) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		fn(route.Method+" "+fullPrefix+route.Pattern, route)
	}
	for _, child := range group.Children {
		walkGroup(fullPrefix, child, fn)
	}
}
