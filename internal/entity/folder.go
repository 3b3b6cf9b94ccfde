package entity

import (
	"fmt"

	"github.com/gofrs/uuid"
)

// Folder is a hierarchical grouping of feeds within a source.
// ParentID is uuid.Nil for a root-level folder.
type Folder struct {
	ID        uuid.UUID `json:"id"`
	SourceID  uuid.UUID `json:"sourceId"`
	ParentID  uuid.UUID `json:"parentId"`
	Title     string    `json:"title"`
	SortOrder int       `json:"sortOrder"`
}

func (f *Folder) String() string {
	return fmt.Sprintf("Folder{ID: %s, Title: %s, ParentID: %s}", f.ID, f.Title, f.ParentID)
}

// IsRoot reports whether the folder sits directly under the source.
func (f *Folder) IsRoot() bool {
	return f.ParentID == uuid.Nil
}
