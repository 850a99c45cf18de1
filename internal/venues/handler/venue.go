package handler

import (
	"net/http"

	"canchas/internal/venues/service"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"canchas/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VenueHandler struct {
	service service.VenueService
	respond *httputil.Responder
}

func NewVenueHandler(service service.VenueService, log *logger.Logger) *VenueHandler {
	return &VenueHandler{
		service: service,
		respond: httputil.NewResponder(log),
	}
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	var venue model.Venue
	if err := httputil.DecodeJSON(r, &venue, false); err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), actor, &venue); err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	h.respond.Created(w, "Create", venue)
}

func (h *VenueHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	venue, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respond.Error(w, "GetByID", err)
		return
	}

	h.respond.Success(w, "GetByID", venue)
}

func (h *VenueHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.respond.Error(w, "GetAll", err)
		return
	}

	venues, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.respond.Error(w, "GetAll", err)
		return
	}

	h.respond.Paginated(w, "GetAll", venues, total, limit, offset)
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "Update", err)
		return
	}

	var updates model.VenueUpdate
	if err := httputil.DecodeJSON(r, &updates, false); err != nil {
		h.respond.Error(w, "Update", err)
		return
	}

	venue, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &updates)
	if err != nil {
		h.respond.Error(w, "Update", err)
		return
	}

	h.respond.Success(w, "Update", venue)
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "Delete", err)
		return
	}

	id := ps.ByName("id")
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.respond.Error(w, "Delete", err)
		return
	}

	h.respond.Message(w, "Delete", "Venue deleted", id)
}

func (h *VenueHandler) ListCourts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courts, err := h.service.ListCourts(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respond.Error(w, "ListCourts", err)
		return
	}

	h.respond.Success(w, "ListCourts", courts)
}

func (h *VenueHandler) CreateCourt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "CreateCourt", err)
		return
	}

	var court model.Court
	if err := httputil.DecodeJSON(r, &court, false); err != nil {
		h.respond.Error(w, "CreateCourt", err)
		return
	}

	if err := h.service.CreateCourt(r.Context(), actor, &court); err != nil {
		h.respond.Error(w, "CreateCourt", err)
		return
	}

	h.respond.Created(w, "CreateCourt", court)
}

func (h *VenueHandler) GetCourt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	court, err := h.service.GetCourt(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respond.Error(w, "GetCourt", err)
		return
	}

	h.respond.Success(w, "GetCourt", court)
}

func (h *VenueHandler) UpdateCourt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "UpdateCourt", err)
		return
	}

	var updates model.CourtUpdate
	if err := httputil.DecodeJSON(r, &updates, false); err != nil {
		h.respond.Error(w, "UpdateCourt", err)
		return
	}

	court, err := h.service.UpdateCourt(r.Context(), actor, ps.ByName("id"), &updates)
	if err != nil {
		h.respond.Error(w, "UpdateCourt", err)
		return
	}

	h.respond.Success(w, "UpdateCourt", court)
}

func (h *VenueHandler) DeleteCourt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "DeleteCourt", err)
		return
	}

	id := ps.ByName("id")
	if err := h.service.DeleteCourt(r.Context(), actor, id); err != nil {
		h.respond.Error(w, "DeleteCourt", err)
		return
	}

	h.respond.Message(w, "DeleteCourt", "Court deleted", id)
}

// Courts are created at /api/v1/courts with venue_id in the body: under POST,
// /api/v1/venues/search already owns the segment after /venues/.
func (h *VenueHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/venues", h.Create)
	router.GET("/api/v1/venues", h.GetAll)
	router.GET("/api/v1/venues/:id", h.GetByID)
	router.PUT("/api/v1/venues/:id", h.Update)
	router.DELETE("/api/v1/venues/:id", h.Delete)
	router.GET("/api/v1/venues/:id/courts", h.ListCourts)

	router.POST("/api/v1/courts", h.CreateCourt)
	router.GET("/api/v1/courts/:id", h.GetCourt)
	router.PUT("/api/v1/courts/:id", h.UpdateCourt)
	router.DELETE("/api/v1/courts/:id", h.DeleteCourt)
}
