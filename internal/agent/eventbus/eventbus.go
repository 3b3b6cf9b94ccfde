// Package eventbus optionally publishes refresh-pipeline notifications
// (spec §4.9 extension: "feed.refreshed"/"post.new") onto NSQ, reusing the
// teacher's internal/messaging/nsqclient/producer wrapper. It is disabled
// unless a publish config block is present, so the in-process agent never
// depends on an external broker being reachable.
package eventbus

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/messaging/nsqclient/producer"
)

// EventType names a notification kind published on the bus.
type EventType string

const (
	EventFeedRefreshed EventType = "feed.refreshed"
	EventPostNew       EventType = "post.new"
)

// Event is the JSON envelope published for every notification, mirroring
// the teacher's MessageEnvelope{Type, payload} shape.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FeedID    uuid.UUID `json:"feedId"`
	PostID    uuid.UUID `json:"postId,omitempty"`
}

type publisher interface {
	Publish(body []byte) error
	Stop()
}

// Bus publishes Events if configured, or silently discards them otherwise.
type Bus struct {
	pub publisher
}

// Disabled returns a Bus that discards every event, for deployments with no
// publish config block.
func Disabled() *Bus {
	return &Bus{}
}

// New connects to the NSQ producer described by cfg.
func New(cfg *producer.MessageProducerConfig) (*Bus, error) {
	p, err := producer.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Bus{pub: p}, nil
}

// Stop releases the underlying producer connection, if any.
func (b *Bus) Stop() {
	if b.pub != nil {
		b.pub.Stop()
	}
}

// PublishFeedRefreshed announces a completed refresh for feedID.
func (b *Bus) PublishFeedRefreshed(feedID uuid.UUID) error {
	return b.publish(Event{Type: EventFeedRefreshed, Timestamp: time.Now(), FeedID: feedID})
}

// PublishPostNew announces a newly inserted post.
func (b *Bus) PublishPostNew(feedID, postID uuid.UUID) error {
	return b.publish(Event{Type: EventPostNew, Timestamp: time.Now(), FeedID: feedID, PostID: postID})
}

func (b *Bus) publish(ev Event) error {
	if b.pub == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.pub.Publish(body)
}
