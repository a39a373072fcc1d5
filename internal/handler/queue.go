package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vendalia/opcenter/internal/middleware"
	"github.com/vendalia/opcenter/internal/scheduler"
	"github.com/vendalia/opcenter/internal/service"
	"github.com/vendalia/opcenter/pkg/logger"
)

// QueueHandler exposes the queue operations: manual drain, scheduler
// control, and cleanup. All three accept empty request bodies and always
// answer with a well-formed JSON body carrying an explicit success flag.
type QueueHandler struct {
	scheduler *scheduler.Scheduler
	sweeper   *service.Sweeper
	logger    *logger.Logger
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(sched *scheduler.Scheduler, sweeper *service.Sweeper, log *logger.Logger) *QueueHandler {
	return &QueueHandler{
		scheduler: sched,
		sweeper:   sweeper,
		logger:    log,
	}
}

// Process handles POST /api/v1/queue/process. It performs exactly one drain
// pass synchronously and returns its outcome.
func (h *QueueHandler) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduler.TriggerOnce(r.Context())
	if err != nil {
		h.logger.Error("manual drain pass failed",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
		"message": "queue processed",
	})
}

// SchedulerStart handles POST /api/v1/queue/scheduler/start. Idempotent:
// calling it while the loop is already running does not spawn a second loop.
// It returns immediately without waiting for a drain pass to complete.
func (h *QueueHandler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	message := "scheduler started"
	if !h.scheduler.Start() {
		message = "scheduler already running"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
	})
}

// SchedulerStop handles POST /api/v1/queue/scheduler/stop.
func (h *QueueHandler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Stop()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "scheduler stopped",
	})
}

// Cleanup handles POST /api/v1/queue/cleanup. It performs one sweep of
// queue entries whose conversation left an actionable state.
func (h *QueueHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.logger.Error("cleanup sweep failed",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"deleted_count": result.DeletedCount,
		"message":       "queue cleanup completed",
	})
}
