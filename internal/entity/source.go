package entity

import (
	"fmt"

	"github.com/gofrs/uuid"
)

// SourceType selects which Backend realises a Source's operations.
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceRemote SourceType = "remote"
)

// RemoteSourceConfig is the opaque config blob for a remote source.
type RemoteSourceConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Login    string `json:"login"`
	Password string `json:"password"`
	UseTLS   bool   `json:"useTLS"`
}

// Source is a logical origin owning folders, feeds, scripts and script folders.
type Source struct {
	ID        uuid.UUID   `json:"id"`
	Type      SourceType  `json:"type"`
	Title     string      `json:"title"`
	SortOrder int         `json:"sortOrder"`
	Config    *RemoteSourceConfig `json:"config,omitempty"`
	LastError string      `json:"lastError,omitempty"`
}

func (s *Source) String() string {
	return fmt.Sprintf("Source{ID: %s, Type: %s, Title: %s}", s.ID, s.Type, s.Title)
}

// IsLocal reports whether the source is the one local embedded-store source.
func (s *Source) IsLocal() bool {
	return s.Type == SourceLocal
}
