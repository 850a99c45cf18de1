package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"canchas/pkg/auth"
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type mockOwnerPurger struct {
	deleteFunc func(ctx context.Context, actor auth.Actor, ownerID string) (int, error)
}

func (m *mockOwnerPurger) DeleteByOwner(ctx context.Context, actor auth.Actor, ownerID string) (int, error) {
	return m.deleteFunc(ctx, actor, ownerID)
}

func serve(purger *mockOwnerPurger, actor *auth.Actor) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewAdminHandler(purger, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/owners/owner-1", nil)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDeleteOwner(t *testing.T) {
	var gotOwner string
	purger := &mockOwnerPurger{
		deleteFunc: func(ctx context.Context, actor auth.Actor, ownerID string) (int, error) {
			gotOwner = ownerID
			return 2, nil
		},
	}

	w := serve(purger, &auth.Actor{ID: "root", Role: auth.RoleSuperuser})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotOwner != "owner-1" {
		t.Errorf("expected owner-1, got %q", gotOwner)
	}

	var body struct {
		Data OwnerCascadeResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Data.VenuesDeleted != 2 {
		t.Errorf("expected 2 venues deleted, got %d", body.Data.VenuesDeleted)
	}
}

func TestDeleteOwner_Failures(t *testing.T) {
	tests := []struct {
		name       string
		actor      *auth.Actor
		err        error
		wantStatus int
	}{
		{"anonymous", nil, nil, http.StatusUnauthorized},
		{"not a superuser", &auth.Actor{ID: "owner-1", Role: auth.RoleClient}, apperrors.Forbidden("Only superusers can remove owners"), http.StatusForbidden},
		{"no venues", &auth.Actor{ID: "root", Role: auth.RoleSuperuser}, apperrors.NotFoundWithID("Owner", "owner-1"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purger := &mockOwnerPurger{
				deleteFunc: func(ctx context.Context, actor auth.Actor, ownerID string) (int, error) {
					return 0, tt.err
				},
			}

			if w := serve(purger, tt.actor); w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
