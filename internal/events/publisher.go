package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "course-service"
	eventVersion = "1.0"
)

// TopicEnrollments carries all enrollment lifecycle and progress events.
const TopicEnrollments = "enrollment-events"

// Event types published by the service
const (
	EventUserEnrolled     = "enrollment.user_enrolled"
	EventAnswersSubmitted = "enrollment.answers_submitted"
	EventLessonCompleted  = "enrollment.lesson_completed"
	EventProgressReset    = "enrollment.progress_reset"
	EventUserUnenrolled   = "enrollment.user_unenrolled"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh id and the current time.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// EnrollmentEvent is the payload of enrollment lifecycle events.
type EnrollmentEvent struct {
	EnrollmentID string `json:"enrollment_id"`
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
}

// AnswersSubmittedEvent is the payload published after a batch of
// answers has been merged into the progress structure.
type AnswersSubmittedEvent struct {
	EnrollmentID  string `json:"enrollment_id"`
	UserID        string `json:"user_id"`
	CourseID      string `json:"course_id"`
	LessonID      string `json:"lesson_id"`
	Submitted     int    `json:"submitted"`
	Passed        int    `json:"passed"`
	LessonDone    bool   `json:"lesson_done"`
}

// LessonCompletedEvent is published when a merge pushes a lesson to
// fully answered.
type LessonCompletedEvent struct {
	EnrollmentID string `json:"enrollment_id"`
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	LessonID     string `json:"lesson_id"`
}
