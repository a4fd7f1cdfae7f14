package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ListFiles handles GET /api/files.
//
//	@Summary		List or search files
//	@Tags			files
//	@Produce		json
//	@Param			folder	query		string	false	"Folder id, root or current; absent searches all files"
//	@Param			q		query		string	false	"Case-insensitive name or tag substring"
//	@Success		200		{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("folder") {
		writeJSON(w, http.StatusOK, FileListResponse{Files: h.svc.Search(q.Get("q"))})
		return
	}
	files, err := h.svc.ListFiles(h.folderParam(q.Get("folder")), q.Get("q"))
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files})
}

// CreateFile handles POST /api/files.
//
//	@Summary		Create a file record
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFileRequest	true	"File to create"
//	@Success		201		{object}	stashservice.FileView
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req CreateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create file", err)
		return
	}
	f, err := h.svc.CreateFile(req.toNewFile())
	if err != nil {
		writeError(w, "create file", err)
		return
	}
	w.Header().Set("ETag", `"`+f.Revision+`"`)
	writeJSON(w, http.StatusCreated, f)
}

// GetFile handles GET /api/files/{id}. Locked content is not included.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFile(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get file", err)
		return
	}
	w.Header().Set("ETag", `"`+f.Revision+`"`)
	writeJSON(w, http.StatusOK, f)
}

// UpdateFile handles PATCH /api/files/{id}.
//
//	@Summary		Update a file with optimistic concurrency
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"File id"
//	@Param			If-Match	header		string				false	"Revision from a previous read"
//	@Param			body		body		UpdateFileRequest	true	"Fields to change"
//	@Success		200			{object}	stashservice.FileView
//	@Failure		401			{object}	errResponse
//	@Failure		403			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{id} [patch]
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	var req UpdateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "update file", err)
		return
	}
	ifMatch := strings.TrimSpace(r.Header.Get("If-Match"))
	f, err := h.svc.UpdateFile(chi.URLParam(r, "id"), req.toPatch(ifMatch))
	if err != nil {
		writeError(w, "update file", err)
		return
	}
	w.Header().Set("ETag", `"`+f.Revision+`"`)
	writeJSON(w, http.StatusOK, f)
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFile(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevealFile handles POST /api/files/{id}/reveal.
//
//	@Summary		Return a file with its content after checking the password
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PasswordRequest	true	"Unlock attempt"
//	@Success		200		{object}	stashservice.FileView
//	@Failure		401		{object}	errResponse	"password missing"
//	@Failure		403		{object}	errResponse	"password wrong"
//	@Security		BearerAuth
//	@Router			/files/{id}/reveal [post]
func (h *Handler) RevealFile(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "reveal file", err)
		return
	}
	f, err := h.svc.RevealFile(chi.URLParam(r, "id"), req.Password)
	if err != nil {
		writeError(w, "reveal file", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, f)
}

// SetTags handles PUT /api/files/{id}/tags.
func (h *Handler) SetTags(w http.ResponseWriter, r *http.Request) {
	var req TagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "set tags", err)
		return
	}
	f, err := h.svc.SetTags(chi.URLParam(r, "id"), req.Tags)
	if err != nil {
		writeError(w, "set tags", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// SuggestTags handles POST /api/files/{id}/tags/suggest.
//
//	@Summary		Suggest tags from the file content and merge them
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PasswordRequest	false	"Password of a locked file"
//	@Success		200		{object}	SuggestResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{id}/tags/suggest [post]
func (h *Handler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, "suggest tags", err)
			return
		}
	}
	f, suggested, err := h.svc.SuggestTags(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		writeError(w, "suggest tags", err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{File: f, Suggested: suggested})
}
