package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripfare/internal/inventory/service"
	httputil "tripfare/pkg/http"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

type upsertRequest struct {
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
	Capacity  int    `json:"capacity"`
}

type InventoryHandler struct {
	service service.InventoryService
	log     *logger.Logger
}

func NewInventoryHandler(service service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		log:     log,
	}
}

func (h *InventoryHandler) Upsert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req upsertRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Upsert", err)
		return
	}

	item := &model.InventoryItem{
		ItemKind:  model.ItemKind(ps.ByName("kind")),
		ItemID:    ps.ByName("itemId"),
		Name:      req.Name,
		BasePrice: req.BasePrice,
		Capacity:  req.Capacity,
	}
	if err := h.service.Upsert(r.Context(), item); err != nil {
		h.writeError(w, "Upsert", err)
		return
	}

	if err := httputil.WriteSuccess(w, item); err != nil {
		h.log.Error("failed to write success response", "handler", "Upsert", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.Get(r.Context(), model.ItemKind(ps.ByName("kind")), ps.ByName("itemId"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, item); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/inventory/:kind/:itemId", h.Upsert)
	router.GET("/api/v1/inventory/:kind/:itemId", h.Get)
}
