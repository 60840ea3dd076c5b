package handler

import (
	"net/http"

	"shelfkeeper/internal/inventory/service"
	httputil "shelfkeeper/pkg/http"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

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

func (h *InventoryHandler) Provision(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ProvisionRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	book, err := h.service.AddCopies(r.Context(), bookID, req.Delta)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, book)
}

func (h *InventoryHandler) Reconcile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Reconcile(r.Context(), bookID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, report)
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/books/:id/copies", h.Provision)
	router.GET("/api/v1/books/:id/inventory", h.Reconcile)
}
