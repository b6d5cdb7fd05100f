// Package events publishes a message every time a dashboard refresh completes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"paydash/internal/core"
	"paydash/internal/log"
	"paydash/internal/metrics"

	"github.com/google/uuid"
)

const (
	TypeRefreshed     = "dashboard.refreshed"
	TypeRefreshFailed = "dashboard.refresh_failed"
)

// Publisher delivers refresh events to a sink.
type Publisher interface {
	Publish(ctx context.Context, ev RefreshEvent) error
	Name() string
	Close() error
}

// RefreshEvent summarizes a completed pipeline run.
type RefreshEvent struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Version     uint64     `json:"version"`
	Error       string     `json:"error,omitempty"`
	Records     int        `json:"records"`
	Total       float64    `json:"total"`
	Average     float64    `json:"average"`
	Categories  int        `json:"categories"`
	LastUpdated *time.Time `json:"lastUpdated"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NewRefreshEvent builds the event for a settled snapshot.
func NewRefreshEvent(snap core.Snapshot) RefreshEvent {
	ev := RefreshEvent{
		ID:          uuid.NewString(),
		Type:        TypeRefreshed,
		Version:     snap.Version,
		Error:       snap.Error,
		Records:     snap.Summary.Count,
		Total:       snap.Summary.Total,
		Average:     snap.Summary.Average,
		Categories:  len(snap.Summary.Categories),
		LastUpdated: snap.LastUpdated,
		Timestamp:   time.Now().UTC(),
	}
	if snap.Error != "" {
		ev.Type = TypeRefreshFailed
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e RefreshEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Nop discards events. Used when EVENTS_BACKEND is none.
type Nop struct{}

func (Nop) Publish(context.Context, RefreshEvent) error { return nil }
func (Nop) Name() string                                  { return "none" }
func (Nop) Close() error                                  { return nil }

// Forward publishes one event per completed run seen on snaps until ctx is
// done or snaps is closed. Feed it from Aggregator.SubscribeRuns; loading
// snapshots and repeated versions are skipped either way.
func Forward(ctx context.Context, snaps <-chan core.Snapshot, pub Publisher, logger *log.Logger) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentEvents)
	sl := log.NewStructuredLogger(logger)

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if snap.Loading || snap.Version <= last {
				continue
			}
			last = snap.Version

			ev := NewRefreshEvent(snap)
			err := pub.Publish(ctx, ev)
			metrics.RecordPublish(pub.Name(), err)
			if err != nil {
				sl.LogPublishFailed(ctx, pub.Name(), ev.Version, err)
				continue
			}
			logger.DebugContext(ctx, "Published refresh event",
				"event_id", ev.ID,
				"type", ev.Type,
				log.FieldVersion, ev.Version,
				log.FieldSink, pub.Name())
		}
	}
}
