package http

import (
	"canchas/pkg/auth"
	"canchas/pkg/config"
	apperrors "canchas/pkg/errors"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ExtractLimitOffset reads limit plus either offset or a 1-based page.
// When both are present, offset wins.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}
	limit = config.NormalizePaginationLimit(limit)

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	} else if s := query.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		offset = int64(page-1) * int64(limit)
	}

	return limit, config.NormalizeOffset(offset), nil
}

// DecodeJSON decodes the request body into v. An empty body is allowed when
// allowEmpty is set and leaves v untouched.
func DecodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.InvalidInput("Request body too large")
	}
	return apperrors.InvalidInput("Invalid request body")
}

// ParseDay resolves the date query parameter to [midnight, next midnight) in loc.
// It accepts YYYY-MM-DD or a full RFC3339 timestamp. ok is false when absent.
func ParseDay(r *http.Request, name string, loc *time.Location) (from, to time.Time, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	day, parseErr := time.ParseInLocation(dateLayout, raw, loc)
	if parseErr != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return time.Time{}, time.Time{}, false, apperrors.InvalidInterval("invalid " + name + " parameter, expected YYYY-MM-DD or RFC3339: " + raw)
		}
		ts = ts.In(loc)
		day = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	}

	return day, day.AddDate(0, 0, 1), true, nil
}

// RequireActor returns the authenticated caller, or Unauthorized for
// anonymous requests.
func RequireActor(r *http.Request) (auth.Actor, error) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, apperrors.Unauthorized("Authentication required")
	}
	return actor, nil
}
