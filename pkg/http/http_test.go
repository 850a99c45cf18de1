package http

import (
	"canchas/pkg/auth"
	apperrors "canchas/pkg/errors"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit limit and offset", "?limit=20&offset=40", 20, 40, false},
		{"page one", "?page=1", 10, 0, false},
		{"page three with limit", "?page=3&limit=5", 5, 10, false},
		{"offset wins over page", "?page=3&offset=7", 10, 7, false},
		{"limit capped", "?limit=1000", 100, 0, false},
		{"negative offset clamped", "?offset=-4", 10, 0, false},
		{"alphabetic limit", "?limit=abc", 0, 0, true},
		{"zero page", "?page=0", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(req)

			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)

	req := httptest.NewRequest(http.MethodGet, "/?date=2024-01-01", nil)
	from, to, ok, err := ParseDay(req, "date", loc)
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if !from.Equal(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected day start %s", from)
	}
	if to.Sub(from) != 24*time.Hour {
		t.Errorf("expected a 24h window, got %s", to.Sub(from))
	}

	// 01:30 UTC on Jan 2nd is still Jan 1st in ART.
	req = httptest.NewRequest(http.MethodGet, "/?date=2024-01-02T01:30:00Z", nil)
	from, _, _, err = ParseDay(req, "date", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from.In(loc).Day() != 1 {
		t.Errorf("expected Jan 1st in venue zone, got %s", from.In(loc))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, _, ok, err = ParseDay(req, "date", loc); ok || err != nil {
		t.Errorf("absent parameter should be ok=false without error")
	}

	req = httptest.NewRequest(http.MethodGet, "/?date=yesterday", nil)
	if _, _, _, err = ParseDay(req, "date", loc); !apperrors.HasCode(err, apperrors.CodeInvalidInterval) {
		t.Errorf("expected INVALID_INTERVAL, got %v", err)
	}
}

func TestWriteError_Body(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot unavailable", apperrors.SlotUnavailable("taken", []string{"r1"}), http.StatusConflict, apperrors.CodeSlotUnavailable},
		{"not found", apperrors.NotFoundWithID("Court", "c1"), http.StatusNotFound, apperrors.CodeNotFound},
		{"plain error is opaque", errors.New("mongo: connection refused"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Errorf("cause leaked to client: %s", w.Body.String())
			}

			var body apperrors.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Code)
			}
			if body.Message == "" {
				t.Errorf("expected a human readable message")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Action string `json:"action"`
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &v, true); err != nil {
		t.Errorf("empty body should be allowed: %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &v, false); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("empty body should be rejected, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"action":`))
	if err := DecodeJSON(req, &v, true); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("truncated body should be rejected, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"action":"cancel"}`))
	if err := DecodeJSON(req, &v, false); err != nil || v.Action != "cancel" {
		t.Errorf("unexpected decode result %q, %v", v.Action, err)
	}
}

func TestRequireActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if _, err := RequireActor(req); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("anonymous request should be UNAUTHORIZED, got %v", err)
	}

	ctx := auth.WithActor(req.Context(), auth.Actor{ID: "u1", Role: auth.RoleUser})
	actor, err := RequireActor(req.WithContext(ctx))
	if err != nil || actor.ID != "u1" {
		t.Errorf("unexpected actor %+v, err %v", actor, err)
	}
}
