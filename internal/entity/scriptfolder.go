package entity

import "github.com/gofrs/uuid"

// ScriptFolder is a user-defined bucket that scripts or users can assign posts into.
type ScriptFolder struct {
	ID         uuid.UUID `json:"id"`
	SourceID   uuid.UUID `json:"sourceId"`
	Title      string    `json:"title"`
	ShowTotal  bool      `json:"showTotal"`
	ShowUnread bool      `json:"showUnread"`
}
