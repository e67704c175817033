// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	UserRegistered = "user.registered"
	CourseEnrolled = "course.enrolled"
	CourseDeleted  = "course.deleted"
)

type Event struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userId,omitempty"`
	CourseID string    `json:"courseId,omitempty"`
	OrderID  string    `json:"orderId,omitempty"`
	Email    string    `json:"email,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Log publishes to the application log. It is used when no broker is configured.
type Log struct {
	logger *zap.SugaredLogger
}

func NewLog(logger *zap.SugaredLogger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(_ context.Context, ev Event) error {
	l.logger.Infow("event", "type", ev.Type, "user", ev.UserID, "course", ev.CourseID)
	return nil
}

func (l *Log) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(typ string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
