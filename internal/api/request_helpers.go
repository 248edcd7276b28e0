package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// pathID parses the named URL parameter as a positive integer ID. Any
// failure is reported as invalid, the entity-specific ErrInvalidXID.
// Only plain decimal digits are accepted; ParseInt alone allows a sign.
func pathID(r *http.Request, param string, invalid error) (int64, error) {
	raw := chi.URLParam(r, param)
	if !isDigits(raw) {
		return 0, invalid
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// pageRequest reads page and per_page from the query string. Missing or
// non-numeric values fall back to page 1 and the default page size.
func pageRequest(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil {
		perPage = domain.DefaultPerPage
	}
	return domain.NewPageRequest(page, perPage)
}

// queryBool accepts the usual truthy spellings.
func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// queryInt64 returns 0 for a missing or malformed value.
func queryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// queryDate parses an optional YYYY-MM-DD query value, recording a field
// error on verr when it is malformed.
func queryDate(r *http.Request, name string, verr *domain.ValidationError) *domain.Date {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		verr.Add(name, "The "+strings.ReplaceAll(name, "_", " ")+" is not a valid date.")
		return nil
	}
	return &d
}

// authUserID returns the authenticated user, or nil when the request
// carries none.
func authUserID(r *http.Request) *int64 {
	id, ok := middleware.GetUserID(r)
	if !ok {
		return nil
	}
	return &id
}
