package http

import (
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"
	"encoding/json"
	"net/http"
)

type SuccessResponse struct {
	Data any `json:"data"`
}

type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {code, message, details}. Errors that are not AppErrors are
// reported as an opaque internal error.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), appErr.Response())
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteMessage(w http.ResponseWriter, message, id string) error {
	return WriteJSON(w, http.StatusOK, MessageResponse{Message: message, ID: id})
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}

// Responder writes responses and logs the rare failure to do so, which
// cannot be reported to the client once headers are sent.
type Responder struct {
	log *logger.Logger
}

func NewResponder(log *logger.Logger) *Responder {
	return &Responder{log: log}
}

func (rs *Responder) Error(w http.ResponseWriter, handler string, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		rs.log.Error("request failed", "handler", handler, "code", appErr.Code, "error", err)
	}
	rs.check(handler, "WriteError", WriteError(w, appErr))
}

func (rs *Responder) Success(w http.ResponseWriter, handler string, data any) {
	rs.check(handler, "WriteSuccess", WriteSuccess(w, data))
}

func (rs *Responder) Created(w http.ResponseWriter, handler string, data any) {
	rs.check(handler, "WriteCreated", WriteCreated(w, data))
}

func (rs *Responder) Message(w http.ResponseWriter, handler, message, id string) {
	rs.check(handler, "WriteMessage", WriteMessage(w, message, id))
}

func (rs *Responder) Paginated(w http.ResponseWriter, handler string, data any, total int64, limit int, offset int64) {
	rs.check(handler, "WritePaginated", WritePaginated(w, data, total, limit, offset))
}

func (rs *Responder) check(handler, operation string, err error) {
	if err != nil {
		rs.log.Error("failed to write response", "handler", handler, "operation", operation, "error", err)
	}
}
