package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stash/internal/stashservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *stashservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *stashservice.Service) *Handler {
	return &Handler{svc: svc}
}

// folderParam resolves a folder query value: absent or "root" is the root,
// "current" is the current selection.
func (h *Handler) folderParam(v string) *string {
	switch v = strings.TrimSpace(v); v {
	case "", "root":
		return nil
	case "current":
		if cur := h.svc.CurrentFolder(); cur != nil {
			return &cur.ID
		}
		return nil
	default:
		return &v
	}
}

// ListFolder handles GET /api/folders.
//
//	@Summary		List a folder's subfolders and files
//	@Tags			folders
//	@Produce		json
//	@Param			parent	query		string	false	"Folder id, root or current"
//	@Param			q		query		string	false	"Filter files by name or tag"
//	@Success		200		{object}	stashservice.Listing
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.svc.List(h.folderParam(q.Get("parent")), q.Get("q"))
	if err != nil {
		writeError(w, "list folder", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// GetFolder handles GET /api/folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := h.svc.List(&id, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "get folder", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Tree handles GET /api/folders/tree.
//
//	@Summary		Whole folder hierarchy with file counts
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	stashservice.Tree
//	@Security		BearerAuth
//	@Router			/folders/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tree())
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	stashservice.FolderView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create folder", err)
		return
	}
	f, err := h.svc.CreateFolder(req.Name, req.ParentID)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// DeleteFolder handles DELETE /api/folders/{id}.
//
//	@Summary		Delete a folder, its subfolders and their files
//	@Tags			folders
//	@Param			id	path	string	true	"Folder id"
//	@Success		204	"Folder deleted"
//	@Failure		404	{object}	errResponse
//	@Failure		423	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFolder handles POST /api/folders/{id}/toggle.
func (h *Handler) ToggleFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.ToggleFolder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// FolderPath handles GET /api/folders/{id}/path.
func (h *Handler) FolderPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := h.svc.FolderPath(&id)
	if len(path) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("folder not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

// FolderLocked handles GET /api/folders/{id}/locked.
func (h *Handler) FolderLocked(w http.ResponseWriter, r *http.Request) {
	locked, err := h.svc.HasLockedFiles(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "folder locked", err)
		return
	}
	writeJSON(w, http.StatusOK, LockedResponse{Locked: locked})
}

// GetCurrent handles GET /api/current.
func (h *Handler) GetCurrent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CurrentFolderResponse{Folder: h.svc.CurrentFolder()})
}

// SetCurrent handles PUT /api/current.
func (h *Handler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req CurrentFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "set current", err)
		return
	}
	cur, err := h.svc.SetCurrentFolder(req.FolderID)
	if err != nil {
		writeError(w, "set current", err)
		return
	}
	writeJSON(w, http.StatusOK, CurrentFolderResponse{Folder: cur})
}
