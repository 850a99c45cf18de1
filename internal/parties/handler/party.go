package handler

import (
	"net/http"
	"time"

	"canchas/internal/parties/service"
	"canchas/internal/reservations/validator"
	apperrors "canchas/pkg/errors"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"canchas/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PartyHandler struct {
	service   service.PartyService
	validator *validator.ReservationValidator
	location  *time.Location
	respond   *httputil.Responder
}

func NewPartyHandler(service service.PartyService, validator *validator.ReservationValidator, location *time.Location, log *logger.Logger) *PartyHandler {
	if location == nil {
		location = time.UTC
	}
	return &PartyHandler{
		service:   service,
		validator: validator,
		location:  location,
		respond:   httputil.NewResponder(log),
	}
}

func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	var req model.PartyRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	party, err := h.service.Book(r.Context(), actor, &req)
	if err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	h.respond.Created(w, "Create", party)
}

func (h *PartyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	party, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respond.Error(w, "GetByID", err)
		return
	}

	h.respond.Success(w, "GetByID", party)
}

func (h *PartyHandler) ListByVenue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, to, _, err := httputil.ParseDay(r, "date", h.location)
	if err != nil {
		h.respond.Error(w, "ListByVenue", err)
		return
	}

	parties, err := h.service.ListByVenue(r.Context(), ps.ByName("id"), from, to)
	if err != nil {
		h.respond.Error(w, "ListByVenue", err)
		return
	}

	h.respond.Success(w, "ListByVenue", parties)
}

func (h *PartyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "UpdateStatus", err)
		return
	}

	var change model.StatusChange
	if err := httputil.DecodeJSON(r, &change, true); err != nil {
		h.respond.Error(w, "UpdateStatus", err)
		return
	}
	if err := h.validator.ValidateStatusChange(&change); err != nil {
		h.respond.Error(w, "UpdateStatus", apperrors.Validation("Invalid status change", map[string]any{
			"error": err.Error(),
		}))
		return
	}

	id := ps.ByName("id")
	var party *model.PartyReservation
	switch change.Action {
	case model.ActionCancel:
		party, err = h.service.Cancel(r.Context(), actor, id)
	case model.ActionRebook:
		party, err = h.service.Rebook(r.Context(), actor, id)
	default:
		party, err = h.service.Toggle(r.Context(), actor, id)
	}
	if err != nil {
		h.respond.Error(w, "UpdateStatus", err)
		return
	}

	h.respond.Success(w, "UpdateStatus", party)
}

func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	h.respond.Message(w, "Delete", "Party reservation deleted", id)
}

func (h *PartyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/parties", h.Create)
	router.GET("/api/v1/parties/:id", h.GetByID)
	router.PUT("/api/v1/parties/:id", h.UpdateStatus)
	router.DELETE("/api/v1/parties/:id", h.Delete)
	router.GET("/api/v1/venues/:id/parties", h.ListByVenue)
}
