package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripfare/internal/freezes/service"
	httputil "tripfare/pkg/http"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

type redeemRequest struct {
	UserID string `json:"user_id"`
}

type redeemTokenRequest struct {
	Token string `json:"token"`
}

type FreezeHandler struct {
	service service.FreezeService
	log     *logger.Logger
}

func NewFreezeHandler(service service.FreezeService, log *logger.Logger) *FreezeHandler {
	return &FreezeHandler{
		service: service,
		log:     log,
	}
}

func (h *FreezeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.FreezeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	freeze, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, freeze); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *FreezeHandler) Redeem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req redeemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Redeem", err)
		return
	}

	freeze, err := h.service.Redeem(r.Context(), ps.ByName("id"), req.UserID)
	if err != nil {
		h.writeError(w, "Redeem", err)
		return
	}

	if err := httputil.WriteSuccess(w, freeze); err != nil {
		h.log.Error("failed to write success response", "handler", "Redeem", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FreezeHandler) RedeemByToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req redeemTokenRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "RedeemByToken", err)
		return
	}

	freeze, err := h.service.RedeemByToken(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, "RedeemByToken", err)
		return
	}

	if err := httputil.WriteSuccess(w, freeze); err != nil {
		h.log.Error("failed to write success response", "handler", "RedeemByToken", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FreezeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	freeze, err := h.service.Get(r.Context(), ps.ByName("id"), r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, freeze); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FreezeHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.service.List(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, list); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *FreezeHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *FreezeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/freezes", h.Create)
	router.GET("/api/v1/freezes", h.List)
	router.POST("/api/v1/freezes/redeem", h.RedeemByToken)
	router.GET("/api/v1/freezes/id/:id", h.GetByID)
	router.POST("/api/v1/freezes/id/:id/redeem", h.Redeem)
}
