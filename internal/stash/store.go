// Package stash implements the folder/file state manager: an owned, in-memory
// tree of folders and a flat collection of files, persisted write-through to a
// storage.Provider after every mutation.
package stash

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/stash/internal/apperr"
	"github.com/starford/stash/internal/models"
	"github.com/starford/stash/internal/storage"
)

// Storage keys holding the two collections.
const (
	KeyFolders = "folders"
	KeyFiles   = "files"
)

// MaxNameLength bounds folder and file names.
const MaxNameLength = 255

// Change kinds passed to a ChangeFunc.
const (
	FolderCreated = "folder.created"
	FolderUpdated = "folder.updated"
	FolderDeleted = "folder.deleted"
	FileCreated   = "file.created"
	FileUpdated   = "file.updated"
	FileDeleted   = "file.deleted"
)

// ChangeFunc is called after a mutation has been applied and persisted.
// It runs outside the store lock.
type ChangeFunc func(kind, id string)

type change struct {
	kind string
	id   string
}

// Store owns the folders and files collections and the current folder selection.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	logger   *slog.Logger
	strict   bool
	cost     int
	now      func() time.Time
	onChange ChangeFunc

	folders []models.Folder
	files   []models.File
	current *string
	pending []change
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for warnings and persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithStrictLocks controls what happens when a lock is requested without a
// password: strict stores reject with apperr.ErrMissingSecret, lenient ones
// store the file unlocked and log a warning.
func WithStrictLocks(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithBcryptCost sets the cost used to hash lock passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithChangeFunc registers a mutation callback.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(s *Store) { s.onChange = fn }
}

// New returns an empty store backed by provider. Call Load to read persisted state.
func New(provider storage.Provider, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		logger:   slog.Default(),
		strict:   true,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the persisted collections.
// Absent or malformed data loads as an empty collection.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.folders = loadCollection[models.Folder](s, KeyFolders)
	s.files = loadCollection[models.File](s, KeyFiles)
	s.current = nil

	switch migrated, failed := s.migrateLegacyLocks(); {
	case failed:
		s.logger.Error("stash: legacy lock migration incomplete, stored files left unchanged")
	case migrated:
		s.persistFiles()
	}

	s.logger.Info("stash: loaded",
		slog.Int("folders", len(s.folders)),
		slog.Int("files", len(s.files)))
}

func loadCollection[T any](s *Store, key string) []T {
	data, err := s.provider.Get(key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("stash: load failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("stash: malformed collection, starting empty", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	return out
}

// migrateLegacyLocks hashes cleartext passwords left by older records.
// Only records locked without any password are unlocked. A password that
// cannot be hashed leaves the record sealed, and failed reports whether
// that happened so the stored cleartext is not overwritten.
func (s *Store) migrateLegacyLocks() (migrated, failed bool) {
	for i := range s.files {
		password, requested := s.files[i].LegacyLock()
		if !requested {
			continue
		}
		migrated = true
		f := s.files[i].Clone()
		switch lock, err := s.legacyLock(password); {
		case err == nil:
			f.Lock = lock
		case errors.Is(err, apperr.ErrMissingSecret):
			s.logger.Warn("stash: locked file without password, storing unlocked",
				slog.String("file_id", f.ID))
		default:
			failed = true
			f.Lock = models.SealedLock()
			s.logger.Error("stash: cannot hash legacy password, file stays locked",
				slog.String("file_id", f.ID), slog.String("error", err.Error()))
		}
		s.files[i] = f
	}
	return migrated, failed
}

// legacyLock hashes password at the configured cost, falling back to the
// default cost when the configured one is rejected.
func (s *Store) legacyLock(password string) (models.LockState, error) {
	lock, err := models.NewLock(password, s.cost)
	if err == nil || errors.Is(err, apperr.ErrMissingSecret) || s.cost == bcrypt.DefaultCost {
		return lock, err
	}
	return models.NewLock(password, bcrypt.DefaultCost)
}

func (s *Store) persistFolders() {
	s.persist(KeyFolders, nonNil(s.folders))
}

func (s *Store) persistFiles() {
	s.persist(KeyFiles, nonNil(s.files))
}

// persist writes one collection. Failures are logged; the in-memory state is kept.
func (s *Store) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("stash: encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.provider.Put(key, data); err != nil {
		s.logger.Error("stash: persist failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *Store) emit(kind, id string) {
	s.pending = append(s.pending, change{kind: kind, id: id})
}

func (s *Store) lock() { s.mu.Lock() }

// unlock releases the store and then delivers queued change events.
func (s *Store) unlock() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()
	if s.onChange == nil {
		return
	}
	for _, e := range events {
		s.onChange(e.kind, e.id)
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
