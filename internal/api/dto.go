package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/stash/internal/models"
	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/stashservice"
)

var fileTypeRule = validation.In(fileTypeValues()...).Error("must be one of text, image, document, link, video")

func fileTypeValues() []any {
	out := make([]any, len(models.FileTypes))
	for i, t := range models.FileTypes {
		out[i] = string(t)
	}
	return out
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Receipts" validate:"required"`
	ParentID *string `json:"parentId" example:"3f1c..."`
}

func (r *CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, stash.MaxNameLength)),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty),
	)
}

// CreateFileRequest is the request body for creating a file.
type CreateFileRequest struct {
	Name     string   `json:"name" example:"Tax 2024" validate:"required"`
	Type     string   `json:"type" example:"text" validate:"required"`
	Content  string   `json:"content" example:"refund expected in May"`
	Tags     []string `json:"tags" example:"finance,tax"`
	FolderID *string  `json:"folderId"`
	Locked   bool     `json:"locked"`
	Password string   `json:"password"`
}

func (r *CreateFileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, stash.MaxNameLength)),
		validation.Field(&r.Type, validation.Required, fileTypeRule),
		validation.Field(&r.FolderID, validation.NilOrNotEmpty),
	)
}

func (r *CreateFileRequest) toNewFile() stash.NewFile {
	return stash.NewFile{
		Name:     r.Name,
		Type:     models.FileType(r.Type),
		Content:  r.Content,
		Tags:     r.Tags,
		FolderID: r.FolderID,
		Locked:   r.Locked,
		Password: r.Password,
	}
}

// UpdateFileRequest is the request body for PATCH /files/{id}. Absent fields
// are left unchanged.
type UpdateFileRequest struct {
	Name        *string  `json:"name"`
	Tags        []string `json:"tags"`
	Content     *string  `json:"content"`
	Locked      *bool    `json:"locked"`
	NewPassword string   `json:"newPassword"`
	Password    string   `json:"password"`
}

func (r *UpdateFileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.RuneLength(1, stash.MaxNameLength)),
	)
}

func (r *UpdateFileRequest) toPatch(ifMatch string) stash.FilePatch {
	return stash.FilePatch{
		IfRevision:  ifMatch,
		Name:        r.Name,
		Tags:        r.Tags,
		Content:     r.Content,
		Locked:      r.Locked,
		NewPassword: r.NewPassword,
		Password:    r.Password,
	}
}

// PasswordRequest carries an unlock attempt.
type PasswordRequest struct {
	Password string `json:"password"`
}

func (r *PasswordRequest) Validate() error { return nil }

// TagsRequest replaces a file's tags.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required"`
}

func (r *TagsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Tags, validation.NotNil),
	)
}

// CurrentFolderRequest selects a folder; a null id selects the root.
type CurrentFolderRequest struct {
	FolderID *string `json:"folderId"`
}

func (r *CurrentFolderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FolderID, validation.NilOrNotEmpty),
	)
}

// FileListResponse wraps file listings.
type FileListResponse struct {
	Files []stashservice.FileView `json:"files" validate:"required"`
}

// SuggestResponse is returned by tag suggestion.
type SuggestResponse struct {
	File      stashservice.FileView `json:"file" validate:"required"`
	Suggested []string              `json:"suggested" validate:"required"`
}

// CurrentFolderResponse holds the selected folder, null for root.
type CurrentFolderResponse struct {
	Folder *stashservice.FolderView `json:"folder"`
}

// LockedResponse reports whether a folder tree holds locked files.
type LockedResponse struct {
	Locked bool `json:"locked"`
}
