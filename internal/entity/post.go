package entity

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// Enclosure is a media attachment on a post.
type Enclosure struct {
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Mime   string `json:"mime"`
}

// Category is a free-form label on a post, unique per (feed, title).
type Category struct {
	ID     uuid.UUID `json:"id"`
	FeedID uuid.UUID `json:"feedId"`
	Title  string    `json:"title"`
}

// Post is a single feed item. Identity is the tuple (FeedID, GUID).
// Seq is the store's monotonically increasing numeric id for the row; it is
// what mark-as-read's maxPostId bound compares against.
type Post struct {
	ID            uuid.UUID   `json:"id"`
	Seq           uint64      `json:"seq,omitempty"`
	FeedID        uuid.UUID   `json:"feedId"`
	IsRead        bool        `json:"isRead"`
	Title         string      `json:"title"`
	Link          string      `json:"link"`
	Content       string      `json:"content"`
	Author        string      `json:"author"`
	CommentsURL   string      `json:"commentsUrl,omitempty"`
	GUID          string      `json:"guid"`
	DatePublished time.Time   `json:"datePublished"`
	Thumbnail     string      `json:"thumbnail,omitempty"`
	Enclosures    []Enclosure `json:"enclosures,omitempty"`
	Categories    []string    `json:"categories,omitempty"`
	Flags         []FlagColor `json:"flags,omitempty"`
	ScriptFolders []uuid.UUID `json:"scriptFolderIds,omitempty"`
}

func (p *Post) String() string {
	return fmt.Sprintf("Post{ID: %s, FeedID: %s, GUID: %s, Title: %s}", p.ID, p.FeedID, p.GUID, p.Title)
}

// HasFlag reports whether the post carries the given flag color.
func (p *Post) HasFlag(c FlagColor) bool {
	for _, f := range p.Flags {
		if f == c {
			return true
		}
	}
	return false
}
