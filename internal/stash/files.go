package stash

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/stash/internal/apperr"
	"github.com/starford/stash/internal/checksum"
	"github.com/starford/stash/internal/models"
)

// NewFile is the input to CreateFile.
type NewFile struct {
	Name     string
	Type     models.FileType
	Content  string
	Tags     []string
	FolderID *string
	Locked   bool
	Password string
}

// Validate checks the request shape. Name is expected to be trimmed already.
func (n NewFile) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&n.Type, validation.Required, validation.By(validFileType)),
	)
}

func validFileType(v any) error {
	t, _ := v.(models.FileType)
	if !t.Valid() {
		return fmt.Errorf("must be one of %v", models.FileTypes)
	}
	return nil
}

// FilePatch describes a partial file update. Nil fields are left unchanged.
//
// Locked selects the target lock state. NewPassword sets the password of a
// locked target; without it an already locked file keeps its password.
// Password is the proof required to unlock the file, or to replace its
// content or password while it is locked. IfRevision, when set, must match
// the file's current Revision.
type FilePatch struct {
	IfRevision  string
	Name        *string
	Tags        []string
	Content     *string
	Locked      *bool
	NewPassword string
	Password    string
}

// CreateFile stores a new file record.
func (s *Store) CreateFile(in NewFile) (models.File, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return models.File{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	var lock models.LockState
	if in.Locked {
		var err error
		lock, err = s.resolveLock(in.Password, "")
		if err != nil {
			return models.File{}, err
		}
	}

	s.lock()
	defer s.unlock()

	if in.FolderID != nil && s.folderIndex(*in.FolderID) < 0 {
		return models.File{}, fmt.Errorf("%w: folder %q does not exist", apperr.ErrValidation, *in.FolderID)
	}

	now := s.now()
	f := models.File{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Type:      in.Type,
		Content:   in.Content,
		Lock:      lock,
		Tags:      dedupTags(nil, in.Tags),
		FolderID:  models.CloneID(in.FolderID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.files = append(s.files, f)
	s.persistFiles()
	s.emit(FileCreated, f.ID)
	return f.Clone(), nil
}

// resolveLock hashes password into a lock. An empty password is rejected in
// strict mode and downgraded to unlocked otherwise.
func (s *Store) resolveLock(password, fileID string) (models.LockState, error) {
	lock, err := models.NewLock(password, s.cost)
	if err == nil {
		return lock, nil
	}
	if errors.Is(err, apperr.ErrMissingSecret) && !s.strict {
		s.logger.Warn("stash: lock requested without password, storing unlocked",
			slog.String("file_id", fileID))
		return models.LockState{}, nil
	}
	return models.LockState{}, err
}

// UpdateFile applies patch to the file. Nothing changes when any part of the
// patch is rejected.
func (s *Store) UpdateFile(id string, patch FilePatch) (models.File, error) {
	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if err := validateName(name); err != nil {
			return models.File{}, err
		}
	}

	s.lock()
	defer s.unlock()

	idx := s.fileIndex(id)
	if idx < 0 {
		return models.File{}, fmt.Errorf("file %q: %w", id, apperr.ErrNotFound)
	}
	f := s.files[idx].Clone()
	if !checksum.Match(patch.IfRevision, f.Revision()) {
		return models.File{}, fmt.Errorf("file %q: %w", id, apperr.ErrConflict)
	}
	wasLocked := f.Locked()

	wantLocked := wasLocked
	if patch.Locked != nil {
		wantLocked = *patch.Locked
	}
	contentChanged := patch.Content != nil && *patch.Content != f.Content
	passwordChanged := wantLocked && patch.NewPassword != ""

	if wasLocked && (!wantLocked || contentChanged || passwordChanged) {
		if err := f.Lock.Verify(patch.Password); err != nil {
			return models.File{}, err
		}
	}

	switch {
	case !wantLocked:
		f.Lock = models.LockState{}
	case passwordChanged:
		lock, err := models.NewLock(patch.NewPassword, s.cost)
		if err != nil {
			return models.File{}, err
		}
		f.Lock = lock
	case !wasLocked:
		lock, err := s.resolveLock("", id)
		if err != nil {
			return models.File{}, err
		}
		f.Lock = lock
	}

	if patch.Name != nil {
		f.Name = name
	}
	if patch.Content != nil {
		f.Content = *patch.Content
	}
	if patch.Tags != nil {
		f.Tags = dedupTags(nil, patch.Tags)
	}
	f.UpdatedAt = s.now()

	s.files[idx] = f
	s.persistFiles()
	s.emit(FileUpdated, id)
	return f.Clone(), nil
}

// DeleteFile removes an unlocked file.
func (s *Store) DeleteFile(id string) error {
	s.lock()
	defer s.unlock()

	idx := s.fileIndex(id)
	if idx < 0 {
		return fmt.Errorf("file %q: %w", id, apperr.ErrNotFound)
	}
	if s.files[idx].Locked() {
		return fmt.Errorf("%w: file %q", apperr.ErrLockRequired, s.files[idx].Name)
	}
	s.files = slices.Delete(s.files, idx, idx+1)
	s.persistFiles()
	s.emit(FileDeleted, id)
	return nil
}

// Reveal returns the file content if attempt unlocks it. State is not modified.
func (s *Store) Reveal(id, attempt string) (string, error) {
	f, err := s.File(id)
	if err != nil {
		return "", err
	}
	return f.Reveal(attempt)
}

// UpdateTags replaces the file's tags.
func (s *Store) UpdateTags(id string, tags []string) (models.File, error) {
	s.lock()
	defer s.unlock()

	idx := s.fileIndex(id)
	if idx < 0 {
		return models.File{}, fmt.Errorf("file %q: %w", id, apperr.ErrNotFound)
	}
	s.files[idx].Tags = dedupTags(nil, tags)
	s.files[idx].UpdatedAt = s.now()
	s.persistFiles()
	s.emit(FileUpdated, id)
	return s.files[idx].Clone(), nil
}

// MergeTags appends the tags the file does not have yet.
func (s *Store) MergeTags(id string, tags []string) (models.File, error) {
	s.lock()
	defer s.unlock()

	idx := s.fileIndex(id)
	if idx < 0 {
		return models.File{}, fmt.Errorf("file %q: %w", id, apperr.ErrNotFound)
	}
	before := len(s.files[idx].Tags)
	s.files[idx].Tags = dedupTags(s.files[idx].Tags, tags)
	if len(s.files[idx].Tags) == before {
		return s.files[idx].Clone(), nil
	}
	s.files[idx].UpdatedAt = s.now()
	s.persistFiles()
	s.emit(FileUpdated, id)
	return s.files[idx].Clone(), nil
}

// FilesIn lists the files stored directly in folderID (nil for root).
func (s *Store) FilesIn(folderID *string) []models.File {
	s.lock()
	defer s.unlock()
	out := []models.File{}
	for _, f := range s.files {
		if models.SameID(f.FolderID, folderID) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// File returns a copy of one file.
func (s *Store) File(id string) (models.File, error) {
	s.lock()
	defer s.unlock()
	idx := s.fileIndex(id)
	if idx < 0 {
		return models.File{}, fmt.Errorf("file %q: %w", id, apperr.ErrNotFound)
	}
	return s.files[idx].Clone(), nil
}

// Files returns a snapshot of every file in insertion order.
func (s *Store) Files() []models.File {
	s.lock()
	defer s.unlock()
	out := make([]models.File, len(s.files))
	for i, f := range s.files {
		out[i] = f.Clone()
	}
	return out
}

func (s *Store) fileIndex(id string) int {
	return slices.IndexFunc(s.files, func(f models.File) bool { return f.ID == id })
}

// dedupTags appends the trimmed, non-empty tags of add to base, skipping
// ones already present. Comparison is case-sensitive.
func dedupTags(base, add []string) []string {
	out := slices.Clone(base)
	if out == nil {
		out = []string{}
	}
	for _, t := range add {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
