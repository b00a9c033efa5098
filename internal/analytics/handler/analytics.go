package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripfare/internal/analytics/service"
	"tripfare/pkg/config"
	httputil "tripfare/pkg/http"
	"tripfare/pkg/logger"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	log     *logger.Logger
}

func NewAnalyticsHandler(service service.AnalyticsService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		log:     log,
	}
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	top, err := httputil.QueryInt(r, "top", config.DefaultTopItems, 1, config.MaxTopItems)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report, err := h.service.Report(r.Context(), top)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AnalyticsHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/analytics", h.Get)
}
