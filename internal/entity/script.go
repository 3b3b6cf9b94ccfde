package entity

import "github.com/gofrs/uuid"

// ScriptType selects the interpreter used to run a Script. Only "lua" exists today.
type ScriptType string

const ScriptTypeLua ScriptType = "lua"

// ScriptEvent is a trigger point at which a Script may run against a post.
type ScriptEvent string

const (
	ScriptEventNewPost    ScriptEvent = "newpost"
	ScriptEventUpdatePost ScriptEvent = "updatepost"
)

// Script is a per-post transformation that may mutate the post before commit.
type Script struct {
	ID            uuid.UUID     `json:"id"`
	SourceID      uuid.UUID     `json:"sourceId"`
	Type          ScriptType    `json:"type"`
	Title         string        `json:"title"`
	IsEnabled     bool          `json:"isEnabled"`
	RunOnEvents   []ScriptEvent `json:"runOnEvents"`
	RunOnFeedIDs  []uuid.UUID   `json:"runOnFeedIds,omitempty"` // nil => all feeds
	Body          string        `json:"body"`
}

// RunsOnEvent reports whether the script is wired to fire on ev.
func (s *Script) RunsOnEvent(ev ScriptEvent) bool {
	for _, e := range s.RunOnEvents {
		if e == ev {
			return true
		}
	}
	return false
}

// RunsOnFeed reports whether the script applies to feedID (nil list => all feeds).
func (s *Script) RunsOnFeed(feedID uuid.UUID) bool {
	if len(s.RunOnFeedIDs) == 0 {
		return true
	}
	for _, id := range s.RunOnFeedIDs {
		if id == feedID {
			return true
		}
	}
	return false
}

// ShouldRun reports whether the script should be dispatched for ev against feedID.
func (s *Script) ShouldRun(ev ScriptEvent, feedID uuid.UUID) bool {
	return s.IsEnabled && s.RunsOnEvent(ev) && s.RunsOnFeed(feedID)
}
