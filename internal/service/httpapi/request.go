package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidRequest("malformed request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidRequest(name + " must be a positive integer")
	}
	return id, nil
}

// pageRequest читает page, size и sort ("id,asc" или "id,desc").
func pageRequest(r *http.Request, ascending bool) (domain.PageRequest, error) {
	q := r.URL.Query()
	req := domain.PageRequest{Ascending: ascending}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 0 {
			return domain.PageRequest{}, invalidRequest("page must be a non-negative integer")
		}
		req.Page = page
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return domain.PageRequest{}, invalidRequest("size must be a positive integer")
		}
		req.Size = size
	}
	if v := q.Get("sort"); v != "" {
		field, direction, _ := strings.Cut(v, ",")
		if field != "id" {
			return domain.PageRequest{}, invalidRequest("only sorting by id is supported")
		}
		switch strings.ToLower(direction) {
		case "asc":
			req.Ascending = true
		case "desc":
			req.Ascending = false
		case "":
		default:
			return domain.PageRequest{}, invalidRequest("sort direction must be asc or desc")
		}
	}
	return req.Normalize(), nil
}
