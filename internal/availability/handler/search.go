package handler

import (
	"net/http"

	"canchas/internal/availability/service"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"canchas/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SearchHandler struct {
	service service.SearchService
	respond *httputil.Responder
}

func NewSearchHandler(service service.SearchService, log *logger.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		respond: httputil.NewResponder(log),
	}
}

// Search always answers 200 with an array in data, possibly empty.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SearchRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.respond.Error(w, "Search", err)
		return
	}

	venues, err := h.service.Search(r.Context(), &req)
	if err != nil {
		h.respond.Error(w, "Search", err)
		return
	}

	h.respond.Success(w, "Search", venues)
}

func (h *SearchHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/venues/search", h.Search)
}
