package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/common"
	"github.com/ternarybob/valuescreen/internal/interfaces"
)

// StatusHandler serves liveness and scheduler status
type StatusHandler struct {
	scheduler interfaces.SchedulerService
	started   time.Time
	logger    arbor.ILogger
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Version   string               `json:"version"`
	Uptime    string               `json:"uptime"`
	Scheduler interfaces.JobStatus `json:"scheduler"`
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		scheduler: scheduler,
		started:   time.Now(),
		logger:    logger,
	}
}

// HealthHandler handles GET /health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, StatusResponse{
		Version:   common.GetFullVersion(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Scheduler: h.scheduler.GetJobStatus(),
	})
}
