package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"canchas/pkg/auth"
	apperrors "canchas/pkg/errors"
	httputil "canchas/pkg/http"
	"canchas/pkg/logger"
	"canchas/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockVenueService struct {
	createFunc      func(ctx context.Context, actor auth.Actor, venue *model.Venue) error
	getByIDFunc     func(ctx context.Context, id string) (*model.Venue, error)
	getAllFunc      func(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error)
	deleteFunc      func(ctx context.Context, actor auth.Actor, id string) error
	createCourtFunc func(ctx context.Context, actor auth.Actor, court *model.Court) error
}

func (m *mockVenueService) Create(ctx context.Context, actor auth.Actor, venue *model.Venue) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, venue)
	}
	return nil
}

func (m *mockVenueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Venue{ID: id}, nil
}

func (m *mockVenueService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Venue{}, 0, nil
}

func (m *mockVenueService) Update(ctx context.Context, actor auth.Actor, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	return &model.Venue{ID: id}, nil
}

func (m *mockVenueService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, actor, id)
	}
	return nil
}

func (m *mockVenueService) DeleteByOwner(ctx context.Context, actor auth.Actor, ownerID string) (int, error) {
	return 0, nil
}

func (m *mockVenueService) CreateCourt(ctx context.Context, actor auth.Actor, court *model.Court) error {
	if m.createCourtFunc != nil {
		return m.createCourtFunc(ctx, actor, court)
	}
	return nil
}

func (m *mockVenueService) GetCourt(ctx context.Context, id string) (*model.Court, error) {
	return &model.Court{ID: id}, nil
}

func (m *mockVenueService) ListCourts(ctx context.Context, venueID string) ([]*model.Court, error) {
	return []*model.Court{}, nil
}

func (m *mockVenueService) UpdateCourt(ctx context.Context, actor auth.Actor, id string, updates *model.CourtUpdate) (*model.Court, error) {
	return &model.Court{ID: id}, nil
}

func (m *mockVenueService) DeleteCourt(ctx context.Context, actor auth.Actor, id string) error {
	return nil
}

func newRouter(svc *mockVenueService) *httprouter.Router {
	router := httprouter.New()
	NewVenueHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func withActor(req *http.Request, actor auth.Actor) *http.Request {
	return req.WithContext(auth.WithActor(req.Context(), actor))
}

func TestRegisterRoutes_NoSearchConflict(t *testing.T) {
	router := newRouter(&mockVenueService{})
	// The availability handler owns POST /api/v1/venues/search on the same router.
	router.POST("/api/v1/venues/search", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/venues/search", strings.NewReader("{}")))
	if w.Code != http.StatusTeapot {
		t.Errorf("expected search route to be reachable, got %d", w.Code)
	}
}

func TestCreate_RequiresActor(t *testing.T) {
	called := false
	router := newRouter(&mockVenueService{
		createFunc: func(ctx context.Context, actor auth.Actor, venue *model.Venue) error {
			called = true
			return nil
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/venues", strings.NewReader(`{"name":"Complejo"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if called {
		t.Errorf("service must not be called for anonymous requests")
	}
}

func TestCreate_PassesActor(t *testing.T) {
	var got auth.Actor
	router := newRouter(&mockVenueService{
		createFunc: func(ctx context.Context, actor auth.Actor, venue *model.Venue) error {
			got = actor
			venue.ID = "v1"
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/venues", strings.NewReader(`{"name":"Complejo","address":"Calle 1"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, withActor(req, auth.Actor{ID: "owner-1", Role: auth.RoleClient}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if got.ID != "owner-1" {
		t.Errorf("expected actor owner-1, got %+v", got)
	}

	var body struct {
		Data model.Venue `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Data.ID != "v1" {
		t.Errorf("expected created venue in body, got %+v", body.Data)
	}
}

func TestGetAll_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int64
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"page two", "?page=2", http.StatusOK, 10, 10},
		{"explicit", "?limit=5&offset=15", http.StatusOK, 5, 15},
		{"bad limit", "?limit=ten", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			var gotOffset int64
			router := newRouter(&mockVenueService{
				getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Venue, int64, error) {
					gotLimit, gotOffset = limit, offset
					return []*model.Venue{}, 30, nil
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d", gotLimit, gotOffset)
			}

			var page httputil.PaginatedResponse
			if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if page.TotalCount != 30 {
				t.Errorf("expected total 30, got %d", page.TotalCount)
			}
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	router := newRouter(&mockVenueService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Venue, error) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/abc", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDelete_Forbidden(t *testing.T) {
	router := newRouter(&mockVenueService{
		deleteFunc: func(ctx context.Context, actor auth.Actor, id string) error {
			return apperrors.Forbidden("You do not manage this venue")
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/venues/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, withActor(req, auth.Actor{ID: "u2", Role: auth.RoleClient}))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCreateCourt_ReadsVenueFromBody(t *testing.T) {
	var got string
	router := newRouter(&mockVenueService{
		createCourtFunc: func(ctx context.Context, actor auth.Actor, court *model.Court) error {
			got = court.VenueID
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courts", strings.NewReader(`{"venue_id":"v1","name":"Cancha 1","players_per_side":5}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, withActor(req, auth.Actor{ID: "owner-1", Role: auth.RoleClient}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if got != "v1" {
		t.Errorf("expected venue v1, got %q", got)
	}
}
