package handler

import (
	"context"
	"net/http"

	"shelfkeeper/internal/cascade/service"
	httputil "shelfkeeper/pkg/http"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CascadeHandler struct {
	service service.CascadeService
	log     *logger.Logger
}

func NewCascadeHandler(service service.CascadeService, log *logger.Logger) *CascadeHandler {
	return &CascadeHandler{
		service: service,
		log:     log,
	}
}

type deleteFunc func(ctx context.Context, id int64) (*model.DeletionSummary, error)

func (h *CascadeHandler) delete(fn deleteFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := httputil.ParamID(ps, "id")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if _, err := fn(r.Context(), id); err != nil {
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteNoContent(w)
	}
}

func (h *CascadeHandler) RegisterRoutes(router *httprouter.Router) {
	router.DELETE("/api/v1/books/:id", h.delete(h.service.DeleteBook))
	router.DELETE("/api/v1/authors/:id", h.delete(h.service.DeleteAuthor))
	router.DELETE("/api/v1/categories/:id", h.delete(h.service.DeleteCategory))
	router.DELETE("/api/v1/members/:id", h.delete(h.service.DeleteMember))
}
