package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stash/internal/stashservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *stashservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", h.ListFolder)
		r.Post("/", h.CreateFolder)
		r.Get("/tree", h.Tree)
		r.Get("/{id}", h.GetFolder)
		r.Delete("/{id}", h.DeleteFolder)
		r.Post("/{id}/toggle", h.ToggleFolder)
		r.Get("/{id}/path", h.FolderPath)
		r.Get("/{id}/locked", h.FolderLocked)
	})

	r.Route("/files", func(r chi.Router) {
		r.Get("/", h.ListFiles)
		r.Post("/", h.CreateFile)
		r.Get("/{id}", h.GetFile)
		r.Patch("/{id}", h.UpdateFile)
		r.Delete("/{id}", h.DeleteFile)
		r.Post("/{id}/reveal", h.RevealFile)
		r.Put("/{id}/tags", h.SetTags)
		r.Post("/{id}/tags/suggest", h.SuggestTags)
	})

	r.Get("/current", h.GetCurrent)
	r.Put("/current", h.SetCurrent)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
