package httpd

import (
	"regexp"
	"strings"
)

var pathParamPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// route is a single registered pattern/handler pair. pathNames holds the
// param names in the order they appear in the pattern, matching the
// capture-group order in pathRegex.
type route struct {
	pattern   string
	pathNames []string
	pathRegex *regexp.Regexp
	handler   Handler
}

// Router matches request paths against registered {name}-style patterns in
// registration order; the first match wins.
type Router struct {
	routes []route
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Handle compiles pattern (e.g. "/users/{id}/posts/{postID}") into an
// anchored regular expression with one capture group per "{name}"
// placeholder, and registers handler for it.
func (r *Router) Handle(pattern string, handler Handler) {
	names := make([]string, 0, 2)
	regexStr := pathParamPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		name := pathParamPattern.FindStringSubmatch(m)[1]
		names = append(names, name)
		return `([^/]*)`
	})

	compiled := regexp.MustCompile("^" + regexStr + "$")
	r.routes = append(r.routes, route{
		pattern:   pattern,
		pathNames: names,
		pathRegex: compiled,
		handler:   handler,
	})
}

// Match returns the handler and extracted parameters for the first
// registered route whose pattern matches path. Only non-empty captured
// parameters are included, matching the source convention that an empty
// path segment does not satisfy a named placeholder.
func (r *Router) Match(path string) (Handler, Params, bool) {
	for _, rt := range r.routes {
		m := rt.pathRegex.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := Params{}
		for i, name := range rt.pathNames {
			if v := m[i+1]; v != "" {
				params[name] = v
			}
		}
		return rt.handler, params, true
	}
	return nil, nil, false
}

// isAssetRequest reports whether the last path segment looks like a static
// asset (contains a '.'), as opposed to an application route that an SPA's
// client-side router should handle.
func isAssetRequest(path string) bool {
	last := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		last = path[idx+1:]
	}
	return strings.Contains(last, ".")
}
