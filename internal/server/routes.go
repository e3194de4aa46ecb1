package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)        // GET - liveness
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET - scheduler status
	mux.HandleFunc("/api/run", s.handleRunRoute)                        // POST - run now

	mux.HandleFunc("/", notFound)

	return mux
}

func (s *Server) handleRunRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodPost: s.app.SchedulerHandler.TriggerRunHandler,
	})
}
