package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// GoChannelEventPublisher is an in-process publisher for deployments
// without a Kafka broker. Every published event is consumed by a
// logging subscriber so development environments still see the event
// stream.
type GoChannelEventPublisher struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
	cancel context.CancelFunc
}

func NewGoChannelEventPublisher(logger *slog.Logger) (*GoChannelEventPublisher, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	p := &GoChannelEventPublisher{
		pubSub: pubSub,
		logger: logger,
		cancel: cancel,
	}

	messages, err := pubSub.Subscribe(ctx, TopicEnrollments)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	go p.consume(messages)

	return p, nil
}

func (p *GoChannelEventPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	if err := p.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *GoChannelEventPublisher) consume(messages <-chan *message.Message) {
	for msg := range messages {
		p.logger.Info("Event",
			"event_id", msg.UUID,
			"event_type", msg.Metadata.Get("event_type"),
			"payload", string(msg.Payload))
		msg.Ack()
	}
}

func (p *GoChannelEventPublisher) Close() error {
	p.cancel()
	return p.pubSub.Close()
}
