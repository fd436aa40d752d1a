package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/service"
	"github.com/qkhacks/controller/internal/store"
)

// pageFrom reads the page/size query parameters, falling back to the
// defaults when absent or unparseable.
func pageFrom(r *http.Request) store.Page {
	page := store.DefaultPage()

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page.Number = n
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Size = n
		}
	}

	return page
}

// uuidParam parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, service.InvalidInputf("invalid %s", name)
	}
	return id, nil
}

// uuidQuery parses an optional UUID query parameter, returning uuid.Nil when
// absent.
func uuidQuery(r *http.Request, name string) (uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, service.InvalidInputf("invalid %s", name)
	}
	return id, nil
}
