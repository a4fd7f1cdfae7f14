package models

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/starford/stash/internal/checksum"
)

// FileType classifies a file record. It is fixed at creation.
type FileType string

const (
	FileTypeText     FileType = "text"
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeLink     FileType = "link"
	FileTypeVideo    FileType = "video"
)

// FileTypes lists every accepted file type.
var FileTypes = []FileType{FileTypeText, FileTypeImage, FileTypeDocument, FileTypeLink, FileTypeVideo}

// Valid reports whether t is one of FileTypes.
func (t FileType) Valid() bool { return slices.Contains(FileTypes, t) }

// File is a lightweight record stored inside a folder (FolderID nil = root).
// Content is always kept in the clear; Lock only gates who may read it.
type File struct {
	ID        string
	Name      string
	Type      FileType
	Content   string
	Lock      LockState
	Tags      []string
	FolderID  *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// set by UnmarshalJSON for records that predate password hashing
	legacyPassword string
	legacyLocked   bool
}

type fileRecord struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Type               FileType `json:"type"`
	Content            string   `json:"content"`
	IsEncrypted        bool     `json:"isEncrypted"`
	PasswordHash       string   `json:"passwordHash,omitempty"`
	EncryptionPassword string   `json:"encryptionPassword,omitempty"`
	Tags               []string `json:"tags"`
	FolderID           *string  `json:"folderId"`
	CreatedAt          int64    `json:"createdAt"`
	UpdatedAt          int64    `json:"updatedAt"`
}

// Locked reports whether the file needs a password to be revealed.
func (f *File) Locked() bool { return f.Lock.Locked() }

// Reveal returns the content when attempt unlocks the file.
// Failures are apperr.ErrPasswordRequired or apperr.ErrInvalidPassword.
func (f *File) Reveal(attempt string) (string, error) {
	if err := f.Lock.Verify(attempt); err != nil {
		return "", err
	}
	return f.Content, nil
}

// LegacyLock reports a lock request read from an old record that carried a
// cleartext password (or none at all) instead of a verifier.
func (f *File) LegacyLock() (password string, requested bool) {
	return f.legacyPassword, f.legacyLocked
}

// Revision is a checksum of the persisted record, used as an ETag.
func (f File) Revision() string {
	data, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

// Clone returns a deep copy of f.
func (f File) Clone() File {
	f.Tags = slices.Clone(f.Tags)
	f.FolderID = CloneID(f.FolderID)
	f.legacyPassword = ""
	f.legacyLocked = false
	return f
}

// MarshalJSON writes the persisted record shape. The cleartext password is never written.
func (f File) MarshalJSON() ([]byte, error) {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(fileRecord{
		ID:           f.ID,
		Name:         f.Name,
		Type:         f.Type,
		Content:      f.Content,
		IsEncrypted:  f.Lock.Locked(),
		PasswordHash: f.Lock.Hash(),
		Tags:         tags,
		FolderID:     f.FolderID,
		CreatedAt:    f.CreatedAt.UnixMilli(),
		UpdatedAt:    f.UpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads a persisted record.
func (f *File) UnmarshalJSON(data []byte) error {
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*f = File{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      rec.Type,
		Content:   rec.Content,
		Tags:      rec.Tags,
		FolderID:  rec.FolderID,
		CreatedAt: time.UnixMilli(rec.CreatedAt),
		UpdatedAt: time.UnixMilli(rec.UpdatedAt),
	}
	if !rec.IsEncrypted {
		return nil
	}
	if rec.PasswordHash != "" {
		f.Lock = LockFromHash(rec.PasswordHash)
		return nil
	}
	f.legacyLocked = true
	f.legacyPassword = rec.EncryptionPassword
	return nil
}
