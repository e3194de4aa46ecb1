package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/services/scheduler"
)

// SchedulerHandler handles manual run triggers
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// TriggerRunHandler handles POST /api/run. The run executes synchronously so the
// response reports its outcome.
func (h *SchedulerHandler) TriggerRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.logger.Info().Str("remote", r.RemoteAddr).Msg("Manual run requested")

	err := h.scheduler.TriggerNow()
	switch {
	case err == nil:
		WriteSuccess(w, "Run completed")
	case errors.Is(err, scheduler.ErrRunInProgress):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
