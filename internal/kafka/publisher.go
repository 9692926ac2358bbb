package kafka

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/models"
)

// Publisher fans chat events out to the streaming channel. Publishing is
// best effort; failures are logged, never surfaced to the chat path.
type Publisher interface {
	MessageSent(ctx context.Context, msg *models.Message)
	RoomUpdated(ctx context.Context, room *models.Room)
	TypingChanged(ctx context.Context, roomID string, typists []string)
	ConnectionChanged(ctx context.Context, participantID, state string)
	Close() error
}

func NewPublisher(conf *config.Config) Publisher {
	if !conf.Kafka.Enabled {
		return &noopPublisher{}
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(conf.Kafka.Brokers...),
		Topic:    conf.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &kafkaPublisher{writer: writer}
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func (p *kafkaPublisher) MessageSent(ctx context.Context, msg *models.Message) {
	p.publish(ctx, msg.RoomID, models.Event{Pattern: models.PatternMessageSent, Data: msg})
}

func (p *kafkaPublisher) RoomUpdated(ctx context.Context, room *models.Room) {
	p.publish(ctx, room.ID, models.Event{Pattern: models.PatternRoomUpdated, Data: room})
}

func (p *kafkaPublisher) TypingChanged(ctx context.Context, roomID string, typists []string) {
	p.publish(ctx, roomID, models.Event{
		Pattern: models.PatternTypingChanged,
		Data:    models.TypingEvent{RoomID: roomID, Typists: typists},
	})
}

func (p *kafkaPublisher) ConnectionChanged(ctx context.Context, participantID, state string) {
	p.publish(ctx, participantID, models.Event{
		Pattern: models.PatternConnectionState,
		Data:    models.ConnectionEvent{ParticipantID: participantID, State: state},
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, key string, event models.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		log.Errorw(ctx, "failed to encode chat event", "pattern", event.Pattern, "error", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		log.Errorw(ctx, "failed to publish chat event", "pattern", event.Pattern, "error", err)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) MessageSent(context.Context, *models.Message)      {}
func (noopPublisher) RoomUpdated(context.Context, *models.Room)         {}
func (noopPublisher) TypingChanged(context.Context, string, []string)   {}
func (noopPublisher) ConnectionChanged(context.Context, string, string) {}
func (noopPublisher) Close() error                                      { return nil }
