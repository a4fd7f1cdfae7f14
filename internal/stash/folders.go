package stash

import (
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/stash/internal/apperr"
	"github.com/starford/stash/internal/models"
)

func validateName(name string) error {
	if err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.RuneLength(1, MaxNameLength),
	); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// CreateFolder appends a new open folder under parentID (nil for root).
// Names need not be unique; the parent must exist.
func (s *Store) CreateFolder(name string, parentID *string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return models.Folder{}, err
	}

	s.lock()
	defer s.unlock()

	if parentID != nil && s.folderIndex(*parentID) < 0 {
		return models.Folder{}, fmt.Errorf("%w: parent folder %q does not exist", apperr.ErrValidation, *parentID)
	}

	now := s.now()
	f := models.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  models.CloneID(parentID),
		IsOpen:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.folders = append(s.folders, f)
	s.persistFolders()
	s.emit(FolderCreated, f.ID)
	return f.Clone(), nil
}

// DeleteFolder removes the folder, all of its descendants and every file
// inside them. Folders holding a locked file are not deleted.
// If the current selection was removed it moves to the deleted folder's parent.
func (s *Store) DeleteFolder(id string) error {
	s.lock()
	defer s.unlock()

	idx := s.folderIndex(id)
	if idx < 0 {
		return fmt.Errorf("folder %q: %w", id, apperr.ErrNotFound)
	}
	target := s.folders[idx]

	closure := s.closure(id)
	if s.lockedIn(closure) {
		return fmt.Errorf("%w: folder %q contains locked files", apperr.ErrLockRequired, target.Name)
	}

	var removedFiles []string
	s.files = slices.DeleteFunc(s.files, func(f models.File) bool {
		if f.FolderID == nil {
			return false
		}
		if _, ok := closure[*f.FolderID]; ok {
			removedFiles = append(removedFiles, f.ID)
			return true
		}
		return false
	})
	var removedFolders []string
	s.folders = slices.DeleteFunc(s.folders, func(f models.Folder) bool {
		if _, ok := closure[f.ID]; ok {
			removedFolders = append(removedFolders, f.ID)
			return true
		}
		return false
	})

	s.persistFolders()
	if len(removedFiles) > 0 {
		s.persistFiles()
	}

	if s.current != nil {
		if _, ok := closure[*s.current]; ok {
			s.current = models.CloneID(target.ParentID)
		}
	}

	for _, fid := range removedFiles {
		s.emit(FileDeleted, fid)
	}
	for _, fid := range removedFolders {
		s.emit(FolderDeleted, fid)
	}
	return nil
}

// ToggleFolderOpen flips the folder's expand/collapse flag.
func (s *Store) ToggleFolderOpen(id string) (models.Folder, error) {
	s.lock()
	defer s.unlock()

	idx := s.folderIndex(id)
	if idx < 0 {
		return models.Folder{}, fmt.Errorf("folder %q: %w", id, apperr.ErrNotFound)
	}
	s.folders[idx].IsOpen = !s.folders[idx].IsOpen
	s.persistFolders()
	s.emit(FolderUpdated, id)
	return s.folders[idx].Clone(), nil
}

// FolderPath returns the ancestors of id from the root down, ending with id
// itself. A missing ancestor ends the walk early.
func (s *Store) FolderPath(id *string) []models.Folder {
	s.lock()
	defer s.unlock()

	var path []models.Folder
	seen := make(map[string]struct{})
	for cur := id; cur != nil; {
		if _, ok := seen[*cur]; ok {
			break
		}
		seen[*cur] = struct{}{}
		idx := s.folderIndex(*cur)
		if idx < 0 {
			break
		}
		f := s.folders[idx]
		path = append(path, f.Clone())
		cur = f.ParentID
	}
	slices.Reverse(path)
	return path
}

// HasLockedDescendant reports whether any file in the folder or below it is locked.
func (s *Store) HasLockedDescendant(id string) bool {
	s.lock()
	defer s.unlock()
	return s.lockedIn(s.closure(id))
}

// SetCurrentFolder changes the selection; nil selects the root.
func (s *Store) SetCurrentFolder(id *string) error {
	s.lock()
	defer s.unlock()
	if id != nil && s.folderIndex(*id) < 0 {
		return fmt.Errorf("folder %q: %w", *id, apperr.ErrNotFound)
	}
	s.current = models.CloneID(id)
	return nil
}

// CurrentFolder returns the selected folder id, nil for root.
func (s *Store) CurrentFolder() *string {
	s.lock()
	defer s.unlock()
	return models.CloneID(s.current)
}

// SubfoldersOf lists the direct children of parentID (nil for root folders).
func (s *Store) SubfoldersOf(parentID *string) []models.Folder {
	s.lock()
	defer s.unlock()
	out := []models.Folder{}
	for _, f := range s.folders {
		if models.SameID(f.ParentID, parentID) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// Folder returns a copy of one folder.
func (s *Store) Folder(id string) (models.Folder, error) {
	s.lock()
	defer s.unlock()
	idx := s.folderIndex(id)
	if idx < 0 {
		return models.Folder{}, fmt.Errorf("folder %q: %w", id, apperr.ErrNotFound)
	}
	return s.folders[idx].Clone(), nil
}

// Folders returns a snapshot of every folder in insertion order.
func (s *Store) Folders() []models.Folder {
	s.lock()
	defer s.unlock()
	out := make([]models.Folder, len(s.folders))
	for i, f := range s.folders {
		out[i] = f.Clone()
	}
	return out
}

func (s *Store) folderIndex(id string) int {
	return slices.IndexFunc(s.folders, func(f models.Folder) bool { return f.ID == id })
}

// closure returns id and all of its transitive descendants.
func (s *Store) closure(id string) map[string]struct{} {
	set := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, f := range s.folders {
			if f.ParentID == nil || *f.ParentID != parent {
				continue
			}
			if _, ok := set[f.ID]; ok {
				continue
			}
			set[f.ID] = struct{}{}
			queue = append(queue, f.ID)
		}
	}
	return set
}

func (s *Store) lockedIn(folderIDs map[string]struct{}) bool {
	for _, f := range s.files {
		if f.FolderID == nil || !f.Locked() {
			continue
		}
		if _, ok := folderIDs[*f.FolderID]; ok {
			return true
		}
	}
	return false
}
