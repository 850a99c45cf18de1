package handler

import (
	"context"
	"net/http"

	"canchas/pkg/auth"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// OwnerPurger removes everything an owner has in the booking domain.
type OwnerPurger interface {
	DeleteByOwner(ctx context.Context, actor auth.Actor, ownerID string) (int, error)
}

type OwnerCascadeResponse struct {
	OwnerID       string `json:"owner_id"`
	VenuesDeleted int    `json:"venues_deleted"`
}

type AdminHandler struct {
	owners  OwnerPurger
	respond *httputil.Responder
}

func NewAdminHandler(owners OwnerPurger, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		owners:  owners,
		respond: httputil.NewResponder(log),
	}
}

func (h *AdminHandler) DeleteOwner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.respond.Error(w, "DeleteOwner", err)
		return
	}

	ownerID := ps.ByName("id")
	deleted, err := h.owners.DeleteByOwner(r.Context(), actor, ownerID)
	if err != nil {
		h.respond.Error(w, "DeleteOwner", err)
		return
	}

	h.respond.Success(w, "DeleteOwner", OwnerCascadeResponse{
		OwnerID:       ownerID,
		VenuesDeleted: deleted,
	})
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.DELETE("/api/v1/admin/owners/:id", h.DeleteOwner)
}
