package handler

import (
	"net/http"

	"shelfkeeper/internal/carts/service"
	httputil "shelfkeeper/pkg/http"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CartHandler struct {
	service service.CartService
	log     *logger.Logger
}

func NewCartHandler(service service.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		log:     log,
	}
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	memberID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.CartRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.Add(r.Context(), memberID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, entry)
}

func (h *CartHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	memberID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.List(r.Context(), memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, entries)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	memberID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	bookID, err := httputil.ParamID(ps, "bookId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Remove(r.Context(), memberID, bookID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CartHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/members/:id/cart", h.Add)
	router.GET("/api/v1/members/:id/cart", h.List)
	router.DELETE("/api/v1/members/:id/cart/:bookId", h.Remove)
}
