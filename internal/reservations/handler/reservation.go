package handler

import (
	"net/http"
	"time"

	"canchas/internal/reservations/service"
	"canchas/internal/reservations/validator"
	apperrors "canchas/pkg/errors"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"canchas/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service   service.ReservationService
	validator *validator.ReservationValidator
	location  *time.Location
	respond   *httputil.Responder
}

func NewReservationHandler(service service.ReservationService, validator *validator.ReservationValidator, location *time.Location, log *logger.Logger) *ReservationHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReservationHandler{
		service:   service,
		validator: validator,
		location:  location,
		respond:   httputil.NewResponder(log),
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	reservation, err := h.service.Book(r.Context(), actor, &req)
	if err != nil {
		h.respond.Error(w, "Create", err)
		return
	}

	h.respond.Created(w, "Create", reservation)
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respond.Error(w, "GetByID", err)
		return
	}

	h.respond.Success(w, "GetByID", reservation)
}

// List filters by court_id and by date, a calendar day in the configured zone.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.respond.Error(w, "List", err)
		return
	}

	from, to, _, err := httputil.ParseDay(r, "date", h.location)
	if err != nil {
		h.respond.Error(w, "List", err)
		return
	}

	filter := model.ReservationFilter{
		CourtID: r.URL.Query().Get("court_id"),
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	}
	reservations, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respond.Error(w, "List", err)
		return
	}

	h.respond.Paginated(w, "List", reservations, total, limit, offset)
}

// UpdateStatus applies a state transition. An empty body toggles.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	var reservation *model.Reservation
	switch change.Action {
	case model.ActionCancel:
		reservation, err = h.service.Cancel(r.Context(), actor, id)
	case model.ActionRebook:
		reservation, err = h.service.Rebook(r.Context(), actor, id)
	default:
		reservation, err = h.service.Toggle(r.Context(), actor, id)
	}
	if err != nil {
		h.respond.Error(w, "UpdateStatus", err)
		return
	}

	h.respond.Success(w, "UpdateStatus", reservation)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	h.respond.Message(w, "Delete", "Reservation deleted", id)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.List)
	router.GET("/api/v1/reservations/:id", h.GetByID)
	router.PUT("/api/v1/reservations/:id", h.UpdateStatus)
	router.DELETE("/api/v1/reservations/:id", h.Delete)
}
