// Package stashservice is the application layer shared by the REST API, the
// MCP server and the CLI. It wraps the stash.Store with presentation views,
// search, placeholders and tag suggestion.
package stashservice

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/stash/internal/apperr"
	"github.com/starford/stash/internal/models"
	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/tagging"
)

// Service coordinates the store and the tag suggester.
type Service struct {
	store     *stash.Store
	suggester tagging.Suggester
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a service. A nil suggester disables tag suggestion.
func New(store *stash.Store, suggester tagging.Suggester, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, suggester: suggester, logger: logger, now: time.Now}
}

// Store exposes the underlying store for read-only callers such as health probes.
func (s *Service) Store() *stash.Store { return s.store }

// List returns the subfolders, files and breadcrumb path of parentID
// (nil for root). Files are filtered by query when it is non-empty.
func (s *Service) List(parentID *string, query string) (Listing, error) {
	var out Listing
	if parentID != nil {
		f, err := s.store.Folder(*parentID)
		if err != nil {
			return Listing{}, err
		}
		v := folderView(f, s.store.HasLockedDescendant(f.ID))
		out.Folder = &v
	}
	out.Path = s.FolderPath(parentID)
	out.Folders = s.subfolders(parentID)
	files, err := s.ListFiles(parentID, query)
	if err != nil {
		return Listing{}, err
	}
	out.Files = files
	return out, nil
}

func (s *Service) subfolders(parentID *string) []FolderView {
	subs := s.store.SubfoldersOf(parentID)
	out := make([]FolderView, len(subs))
	for i, f := range subs {
		out[i] = folderView(f, s.store.HasLockedDescendant(f.ID))
	}
	return out
}

// ListFiles returns the files directly in folderID whose name or any tag
// contains query (case-insensitive), most recently updated first.
func (s *Service) ListFiles(folderID *string, query string) ([]FileView, error) {
	if folderID != nil {
		if _, err := s.store.Folder(*folderID); err != nil {
			return nil, err
		}
	}
	return s.filter(s.store.FilesIn(folderID), query), nil
}

// Search matches query against every file regardless of folder.
func (s *Service) Search(query string) []FileView {
	return s.filter(s.store.Files(), query)
}

func (s *Service) filter(files []models.File, query string) []FileView {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []FileView{}
	for _, f := range files {
		if q == "" || matches(f, q) {
			out = append(out, fileView(f))
		}
	}
	slices.SortStableFunc(out, func(a, b FileView) int {
		return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	return out
}

func matches(f models.File, q string) bool {
	if strings.Contains(strings.ToLower(f.Name), q) {
		return true
	}
	return slices.ContainsFunc(f.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), q)
	})
}

// CreateFolder creates a folder under parentID.
func (s *Service) CreateFolder(name string, parentID *string) (FolderView, error) {
	f, err := s.store.CreateFolder(name, parentID)
	if err != nil {
		return FolderView{}, err
	}
	s.logger.Info("folder created", slog.String("id", f.ID), slog.String("name", f.Name))
	return folderView(f, false), nil
}

// DeleteFolder deletes a folder tree.
func (s *Service) DeleteFolder(id string) error {
	if err := s.store.DeleteFolder(id); err != nil {
		return err
	}
	s.logger.Info("folder deleted", slog.String("id", id))
	return nil
}

// ToggleFolder flips a folder's open state.
func (s *Service) ToggleFolder(id string) (FolderView, error) {
	f, err := s.store.ToggleFolderOpen(id)
	if err != nil {
		return FolderView{}, err
	}
	return folderView(f, s.store.HasLockedDescendant(f.ID)), nil
}

// FolderPath returns the breadcrumb from the root to id.
func (s *Service) FolderPath(id *string) []FolderView {
	path := s.store.FolderPath(id)
	out := make([]FolderView, len(path))
	for i, f := range path {
		out[i] = folderView(f, s.store.HasLockedDescendant(f.ID))
	}
	return out
}

// HasLockedFiles reports whether the folder tree at id holds a locked file.
func (s *Service) HasLockedFiles(id string) (bool, error) {
	if _, err := s.store.Folder(id); err != nil {
		return false, err
	}
	return s.store.HasLockedDescendant(id), nil
}

// CurrentFolder returns the selected folder, nil for root.
func (s *Service) CurrentFolder() *FolderView {
	id := s.store.CurrentFolder()
	if id == nil {
		return nil
	}
	f, err := s.store.Folder(*id)
	if err != nil {
		return nil
	}
	v := folderView(f, s.store.HasLockedDescendant(f.ID))
	return &v
}

// SetCurrentFolder changes the selection.
func (s *Service) SetCurrentFolder(id *string) (*FolderView, error) {
	if err := s.store.SetCurrentFolder(id); err != nil {
		return nil, err
	}
	return s.CurrentFolder(), nil
}

// CreateFile stores a new file. Images and documents without content get a
// placeholder.
func (s *Service) CreateFile(in stash.NewFile) (FileView, error) {
	if strings.TrimSpace(in.Content) == "" {
		in.Content = s.placeholder(in.Type, strings.TrimSpace(in.Name))
	}
	f, err := s.store.CreateFile(in)
	if err != nil {
		return FileView{}, err
	}
	s.logger.Info("file created",
		slog.String("id", f.ID),
		slog.String("type", string(f.Type)),
		slog.Bool("locked", f.Locked()))
	return fileView(f), nil
}

func (s *Service) placeholder(t models.FileType, name string) string {
	switch t {
	case models.FileTypeImage:
		return fmt.Sprintf("https://picsum.photos/seed/%d/400/300", s.now().UnixMilli())
	case models.FileTypeDocument:
		return fmt.Sprintf("This is a placeholder for the document named %q. Actual content is not stored.", name)
	default:
		return ""
	}
}

// GetFile returns a file; locked content is withheld.
func (s *Service) GetFile(id string) (FileView, error) {
	f, err := s.store.File(id)
	if err != nil {
		return FileView{}, err
	}
	return fileView(f), nil
}

// RevealFile returns a file including its content when password unlocks it.
func (s *Service) RevealFile(id, password string) (FileView, error) {
	f, err := s.store.File(id)
	if err != nil {
		return FileView{}, err
	}
	content, err := f.Reveal(password)
	if err != nil {
		return FileView{}, err
	}
	v := fileView(f)
	v.Content = content
	v.Revealed = f.Locked()
	return v, nil
}

// UpdateFile applies a patch.
func (s *Service) UpdateFile(id string, patch stash.FilePatch) (FileView, error) {
	f, err := s.store.UpdateFile(id, patch)
	if err != nil {
		return FileView{}, err
	}
	s.logger.Info("file updated", slog.String("id", id), slog.Bool("locked", f.Locked()))
	return fileView(f), nil
}

// DeleteFile removes an unlocked file.
func (s *Service) DeleteFile(id string) error {
	if err := s.store.DeleteFile(id); err != nil {
		return err
	}
	s.logger.Info("file deleted", slog.String("id", id))
	return nil
}

// SetTags replaces a file's tags.
func (s *Service) SetTags(id string, tags []string) (FileView, error) {
	f, err := s.store.UpdateTags(id, tags)
	if err != nil {
		return FileView{}, err
	}
	return fileView(f), nil
}

// SuggestTags asks the suggester for tags based on the file content and
// merges them into the file. Locked files need password. It returns the
// updated file and the raw suggestions.
func (s *Service) SuggestTags(ctx context.Context, id, password string) (FileView, []string, error) {
	f, err := s.store.File(id)
	if err != nil {
		return FileView{}, nil, err
	}
	if f.Type != models.FileTypeText && f.Type != models.FileTypeLink {
		return FileView{}, nil, fmt.Errorf("%w: file type %s", apperr.ErrNotSuggestable, f.Type)
	}
	content, err := f.Reveal(password)
	if err != nil {
		return FileView{}, nil, err
	}
	if strings.TrimSpace(content) == "" {
		return FileView{}, nil, fmt.Errorf("%w: file is empty", apperr.ErrNotSuggestable)
	}
	if s.suggester == nil {
		return FileView{}, nil, fmt.Errorf("%w: tag suggestion is not configured", apperr.ErrUpstream)
	}

	suggested, err := s.suggester.SuggestTags(ctx, content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return FileView{}, nil, err
		}
		s.logger.Warn("tag suggestion failed", slog.String("id", id), slog.String("error", err.Error()))
		return FileView{}, nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	merged, err := s.store.MergeTags(id, suggested)
	if err != nil {
		return FileView{}, nil, err
	}
	s.logger.Info("tags suggested", slog.String("id", id), slog.Int("count", len(suggested)))
	return fileView(merged), nonNilSlice(suggested), nil
}

// Tree builds the nested folder hierarchy with per-folder file counts.
func (s *Service) Tree() Tree {
	folders := s.store.Folders()
	files := s.store.Files()

	counts := make(map[string]int)
	locked := make(map[string]bool)
	rootFiles := 0
	for _, f := range files {
		if f.FolderID == nil {
			rootFiles++
			continue
		}
		counts[*f.FolderID]++
		if f.Locked() {
			locked[*f.FolderID] = true
		}
	}

	children := make(map[string][]models.Folder)
	for _, f := range folders {
		children[parentKey(f.ParentID)] = append(children[parentKey(f.ParentID)], f)
	}

	visited := make(map[string]bool)
	var build func(parent string) ([]TreeNode, bool)
	build = func(parent string) ([]TreeNode, bool) {
		nodes := []TreeNode{}
		anyLocked := false
		for _, f := range children[parent] {
			if visited[f.ID] {
				continue
			}
			visited[f.ID] = true
			kids, kidsLocked := build(f.ID)
			hasLocked := locked[f.ID] || kidsLocked
			anyLocked = anyLocked || hasLocked
			nodes = append(nodes, TreeNode{
				Folder:    folderView(f, hasLocked),
				FileCount: counts[f.ID],
				Children:  kids,
			})
		}
		return nodes, anyLocked
	}
	top, _ := build("")
	return Tree{RootFiles: rootFiles, Folders: top}
}

func parentKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
