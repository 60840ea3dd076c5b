package handler

import (
	"net/http"

	"shelfkeeper/internal/borrowings/service"
	httputil "shelfkeeper/pkg/http"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BorrowingHandler struct {
	service service.BorrowingService
	log     *logger.Logger
}

func NewBorrowingHandler(service service.BorrowingService, log *logger.Logger) *BorrowingHandler {
	return &BorrowingHandler{
		service: service,
		log:     log,
	}
}

func (h *BorrowingHandler) Borrow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BorrowRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	borrowing, err := h.service.Borrow(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, borrowing)
}

func (h *BorrowingHandler) Return(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ReturnRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	borrowing, err := h.service.Return(r.Context(), id, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, borrowing)
}

func (h *BorrowingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	borrowing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, borrowing)
}

func (h *BorrowingHandler) ListByMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	memberID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	activeOnly, err := httputil.QueryBool(r, "active")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	borrowings, err := h.service.ListByMember(r.Context(), memberID, activeOnly)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, borrowings)
}

func (h *BorrowingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/borrowings", h.Borrow)
	router.GET("/api/v1/borrowings/:id", h.GetByID)
	router.POST("/api/v1/borrowings/:id/return", h.Return)
	router.GET("/api/v1/members/:id/borrowings", h.ListByMember)
}
