package stashservice

import (
	"github.com/starford/stash/internal/models"
)

// FolderView is the API shape of a folder.
type FolderView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ParentID       *string `json:"parentId"`
	IsOpen         bool    `json:"isOpen"`
	HasLockedFiles bool    `json:"hasLockedFiles"`
	CreatedAt      int64   `json:"createdAt"`
	UpdatedAt      int64   `json:"updatedAt"`
}

// FileView is the API shape of a file. Content is omitted while the file is
// locked unless it was revealed with the right password.
type FileView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        models.FileType `json:"type"`
	Content     string          `json:"content,omitempty"`
	IsEncrypted bool            `json:"isEncrypted"`
	Revealed    bool            `json:"revealed,omitempty"`
	Tags        []string        `json:"tags"`
	FolderID    *string         `json:"folderId"`
	Revision    string          `json:"revision"`
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// Listing is the content of one folder (or the root when Folder is nil).
type Listing struct {
	Folder  *FolderView  `json:"folder"`
	Path    []FolderView `json:"path"`
	Folders []FolderView `json:"folders"`
	Files   []FileView   `json:"files"`
}

// TreeNode is a folder with its nested children, used by tree renderings.
type TreeNode struct {
	Folder    FolderView `json:"folder"`
	FileCount int        `json:"fileCount"`
	Children  []TreeNode `json:"children"`
}

// Tree is the whole folder hierarchy plus the root-level file count.
type Tree struct {
	RootFiles int        `json:"rootFiles"`
	Folders   []TreeNode `json:"folders"`
}

func folderView(f models.Folder, hasLocked bool) FolderView {
	return FolderView{
		ID:             f.ID,
		Name:           f.Name,
		ParentID:       f.ParentID,
		IsOpen:         f.IsOpen,
		HasLockedFiles: hasLocked,
		CreatedAt:      f.CreatedAt.UnixMilli(),
		UpdatedAt:      f.UpdatedAt.UnixMilli(),
	}
}

func fileView(f models.File) FileView {
	v := FileView{
		ID:          f.ID,
		Name:        f.Name,
		Type:        f.Type,
		IsEncrypted: f.Locked(),
		Tags:        nonNilSlice(f.Tags),
		FolderID:    f.FolderID,
		Revision:    f.Revision(),
		CreatedAt:   f.CreatedAt.UnixMilli(),
		UpdatedAt:   f.UpdatedAt.UnixMilli(),
	}
	if !f.Locked() {
		v.Content = f.Content
	}
	return v
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
