package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/valuescreen/internal/handlers"
)

// MethodRouter maps HTTP methods to handlers for a single path
type MethodRouter map[string]http.HandlerFunc

// RouteByMethod dispatches on r.Method; unmapped methods get a JSON 405 with an Allow header
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	if handler, ok := routes[r.Method]; ok {
		handler(w, r)
		return
	}

	allowed := make([]string, 0, len(routes))
	for method := range routes {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)

	w.Header().Set("Allow", strings.Join(allowed, ", "))
	_ = handlers.WriteError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
}

// notFound is the catch-all for unrouted paths
func notFound(w http.ResponseWriter, r *http.Request) {
	_ = handlers.WriteError(w, http.StatusNotFound, "no route for "+r.URL.Path)
}
