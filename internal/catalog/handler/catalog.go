package handler

import (
	"net/http"

	"shelfkeeper/internal/catalog/service"
	httputil "shelfkeeper/pkg/http"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log,
	}
}

func (h *CatalogHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.BookInput
	if err := httputil.DecodeJSON(r, &input, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, book)
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, book)
}

func (h *CatalogHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var update model.BookUpdate
	if err := httputil.DecodeJSON(r, &update, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, book)
}

func (h *CatalogHandler) CreateAuthor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var author model.Author
	if err := httputil.DecodeJSON(r, &author, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CreateAuthor(r.Context(), &author); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, author)
}

func (h *CatalogHandler) GetAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	author, err := h.service.GetAuthor(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, struct {
		*model.Author
		FullName string `json:"full_name"`
	}{author, author.FullName()})
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var category model.Category
	if err := httputil.DecodeJSON(r, &category, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CreateCategory(r.Context(), &category); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, category)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, struct {
		*model.Category
		DisplayName string `json:"display_name"`
	}{category, category.DisplayName()})
}

func (h *CatalogHandler) CreateMember(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var member model.Member
	if err := httputil.DecodeJSON(r, &member, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CreateMember(r.Context(), &member); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

func (h *CatalogHandler) GetMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, member)
}

func (h *CatalogHandler) CreateLibrarian(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var librarian model.Librarian
	if err := httputil.DecodeJSON(r, &librarian, false); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CreateLibrarian(r.Context(), &librarian); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, librarian)
}

func (h *CatalogHandler) GetLibrarian(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	librarian, err := h.service.GetLibrarian(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, librarian)
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/books", h.CreateBook)
	router.GET("/api/v1/books/:id", h.GetBook)
	router.PUT("/api/v1/books/:id", h.UpdateBook)

	router.POST("/api/v1/authors", h.CreateAuthor)
	router.GET("/api/v1/authors/:id", h.GetAuthor)
	router.POST("/api/v1/categories", h.CreateCategory)
	router.GET("/api/v1/categories/:id", h.GetCategory)
	router.POST("/api/v1/members", h.CreateMember)
	router.GET("/api/v1/members/:id", h.GetMember)
	router.POST("/api/v1/librarians", h.CreateLibrarian)
	router.GET("/api/v1/librarians/:id", h.GetLibrarian)
}
