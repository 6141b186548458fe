package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/worker"
)

// Launcher starts import runs in the background.
type Launcher interface {
	Start(ctx context.Context) *worker.Task
	Current() *worker.Task
}

// RunHistory looks up the last run recorded by any process.
type RunHistory interface {
	LastRunState(ctx context.Context) (*domain.ImportRun, error)
}

type ImportHandler struct {
	launcher Launcher
	history  RunHistory
	logger   *slog.Logger
}

// NewImportHandler creates the import handler. history may be nil.
func NewImportHandler(launcher Launcher, history RunHistory, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{launcher: launcher, history: history, logger: logger}
}

// Start triggers a run, or reports the one already running in this process.
func (h *ImportHandler) Start(w http.ResponseWriter, r *http.Request) {
	task := h.launcher.Start(r.Context())
	respondJSON(w, http.StatusAccepted, task.Status())
}

// Current returns this process's latest run, falling back to the shared
// record when nothing has run here yet.
func (h *ImportHandler) Current(w http.ResponseWriter, r *http.Request) {
	if task := h.launcher.Current(); task != nil {
		respondJSON(w, http.StatusOK, task.Status())
		return
	}

	if h.history != nil {
		run, err := h.history.LastRunState(r.Context())
		if err != nil {
			h.logger.Error("failed to load last run", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load import run")
			return
		}
		if run != nil {
			respondJSON(w, http.StatusOK, run)
			return
		}
	}

	respondError(w, http.StatusNotFound, "no import run found")
}
