package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripfare/internal/quotes/service"
	"tripfare/pkg/config"
	httputil "tripfare/pkg/http"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

const maxHistoryDays = 9999

type QuoteHandler struct {
	service service.QuoteService
	log     *logger.Logger
}

func NewQuoteHandler(service service.QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		log:     log,
	}
}

func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	quote, err := h.service.GetQuote(r.Context(), model.ItemKind(ps.ByName("kind")), ps.ByName("itemId"), ps.ByName("dateKey"))
	if err != nil {
		h.writeError(w, "GetQuote", err)
		return
	}

	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.log.Error("failed to write success response", "handler", "GetQuote", "operation", "WriteSuccess", "error", err)
	}
}

func (h *QuoteHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	days, err := httputil.QueryInt(r, "days", config.DefaultHistoryDays, 1, maxHistoryDays)
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	history, err := h.service.History(r.Context(), model.ItemKind(ps.ByName("kind")), ps.ByName("itemId"), days, r.URL.Query().Get("date_key"))
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	if err := httputil.WriteSuccess(w, history); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

func (h *QuoteHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *QuoteHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/quotes/:kind/:itemId/:dateKey", h.GetQuote)
	router.GET("/api/v1/history/:kind/:itemId", h.History)
}
