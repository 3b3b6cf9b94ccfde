package entity

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// Feed is a single subscription, its channel-level metadata and refresh state.
type Feed struct {
	ID               uuid.UUID `json:"id"`
	SourceID         uuid.UUID `json:"sourceId"`
	FolderID         uuid.UUID `json:"folderId"`
	URL              string    `json:"url"`
	GUID             string    `json:"guid"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle"`
	Link             string    `json:"link"`
	Description      string    `json:"description"`
	Language         string    `json:"language"`
	Copyright        string    `json:"copyright"`
	IconURL          string    `json:"iconUrl"`
	IconHash         string    `json:"iconHash,omitempty"`
	IconLastFetched  time.Time `json:"iconLastFetched,omitempty"`
	LastChecked      time.Time `json:"lastChecked,omitempty"`
	LastRefreshError string    `json:"lastRefreshError,omitempty"`
	RefreshInterval  *int      `json:"refreshInterval,omitempty"` // seconds; nil = use global default
	SortOrder        int       `json:"sortOrder"`

	// HTTP conditional-GET cache, persisted alongside the feed.
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

func (f *Feed) String() string {
	return fmt.Sprintf("Feed{ID: %s, URL: %s, Title: %s}", f.ID, f.URL, f.Title)
}

// HasIconFetchedWithin reports whether the icon was fetched within d of now.
func (f *Feed) HasIconFetchedWithin(d time.Duration, now time.Time) bool {
	if f.IconLastFetched.IsZero() {
		return false
	}
	return now.Sub(f.IconLastFetched) < d
}

// EffectiveInterval returns the feed's own refresh interval, falling back to def.
func (f *Feed) EffectiveInterval(def time.Duration) time.Duration {
	if f.RefreshInterval == nil {
		return def
	}
	return time.Duration(*f.RefreshInterval) * time.Second
}
