package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventUserEnrolled, EnrollmentEvent{
		EnrollmentID: "e1",
		UserID:       "u1",
		CourseID:     "c1",
	})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventUserEnrolled, event.Type)
	assert.Equal(t, eventSource, event.Source)
	assert.Equal(t, eventVersion, event.Version)
	assert.False(t, event.Timestamp.IsZero())

	other := NewEvent(EventUserEnrolled, nil)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	require.NoError(t, publisher.Publish(ctx, "enrollment-events", NewEvent(EventUserEnrolled, nil)))
	require.NoError(t, publisher.Publish(ctx, "enrollment-events", NewEvent(EventProgressReset, nil)))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventUserEnrolled, published[0].Type)
	assert.Equal(t, EventProgressReset, published[1].Type)

	// Snapshot is a copy, not the live slice
	published[0] = nil
	assert.NotNil(t, publisher.GetPublishedEvents()[0])

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
	require.NoError(t, publisher.Close())
}

func TestMockEventPublisherConcurrent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewMockEventPublisher(logger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = publisher.Publish(context.Background(), "t", NewEvent(EventAnswersSubmitted, nil))
		}()
	}
	wg.Wait()

	assert.Len(t, publisher.GetPublishedEvents(), 20)
}

func TestGoChannelEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, err := NewGoChannelEventPublisher(logger)
	require.NoError(t, err)

	event := NewEvent(EventLessonCompleted, LessonCompletedEvent{
		EnrollmentID: "e1",
		UserID:       "u1",
		CourseID:     "c1",
		LessonID:     "l1",
	})
	require.NoError(t, publisher.Publish(context.Background(), TopicEnrollments, event))

	require.NoError(t, publisher.Close())
	assert.Error(t, publisher.Publish(context.Background(), TopicEnrollments, event),
		"publishing after close fails")
}
