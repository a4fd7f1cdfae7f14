// Package models defines the domain types for stash.
package models

import (
	"encoding/json"
	"time"
)

// Folder is a node of the folder tree. ParentID is nil for root-level folders.
type Folder struct {
	ID        string
	Name      string
	ParentID  *string
	IsOpen    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type folderRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	IsOpen    *bool   `json:"isOpen,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// MarshalJSON writes the persisted record shape (millisecond timestamps).
func (f Folder) MarshalJSON() ([]byte, error) {
	open := f.IsOpen
	return json.Marshal(folderRecord{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		IsOpen:    &open,
		CreatedAt: f.CreatedAt.UnixMilli(),
		UpdatedAt: f.UpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads a persisted record. Records written before isOpen
// existed are treated as open.
func (f *Folder) UnmarshalJSON(data []byte) error {
	var rec folderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*f = Folder{
		ID:        rec.ID,
		Name:      rec.Name,
		ParentID:  rec.ParentID,
		IsOpen:    rec.IsOpen == nil || *rec.IsOpen,
		CreatedAt: time.UnixMilli(rec.CreatedAt),
		UpdatedAt: time.UnixMilli(rec.UpdatedAt),
	}
	return nil
}

// Clone returns a copy that shares no pointers with f.
func (f Folder) Clone() Folder {
	f.ParentID = CloneID(f.ParentID)
	return f
}

// SameID compares two optional ids; nil means root.
func SameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CloneID copies an optional id.
func CloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
