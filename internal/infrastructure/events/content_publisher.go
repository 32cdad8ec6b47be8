package events

import (
	"context"
	"encoding/json"

	"github.com/cliptag/cliptag/internal/domain"
	"github.com/cliptag/cliptag/internal/infrastructure/contracts"
	"github.com/cliptag/cliptag/internal/infrastructure/messaging"
)

// ContentPublisher mirrors room content changes onto the AMQP exchange. This
// is the seam for running more than one instance: a sibling process can
// subscribe and replay the events into its own hub. The publisher is
// optional; a nil *ContentPublisher is a no-op.
type ContentPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewContentPublisher(rabbitmq *messaging.RabbitMQ) *ContentPublisher {
	return &ContentPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *ContentPublisher) publish(ctx context.Context, routingKey, tag string, payload any) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		Tag:  tag,
		Data: data,
	})
}

func (p *ContentPublisher) PublishClipboardUpdated(ctx context.Context, clip *domain.Clipboard) error {
	return p.publish(ctx, contracts.EventClipboardUpdated, clip.Tag, messaging.ClipboardEventData{
		Tag:       clip.Tag,
		Content:   clip.Content,
		UpdatedAt: clip.UpdatedAt,
	})
}

func (p *ContentPublisher) PublishClipboardDeleted(ctx context.Context, tag string) error {
	return p.publish(ctx, contracts.EventClipboardDeleted, tag, messaging.ClipboardEventData{Tag: tag})
}

func (p *ContentPublisher) PublishFileUploaded(ctx context.Context, entry *domain.FileEntry) error {
	return p.publish(ctx, contracts.EventFileUploaded, entry.Tag, messaging.FileEventData{
		Tag:        entry.Tag,
		FileID:     entry.ID,
		FileName:   entry.OriginalName,
		FileSize:   entry.Size,
		UploadedAt: entry.UploadedAt,
	})
}

func (p *ContentPublisher) PublishFileDeleted(ctx context.Context, tag, fileID string) error {
	return p.publish(ctx, contracts.EventFileDeleted, tag, messaging.FileEventData{
		Tag:    tag,
		FileID: fileID,
	})
}

func (p *ContentPublisher) PublishRoomCreated(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, contracts.EventRoomCreated, room.Tag, messaging.RoomEventData{Room: room})
}

func (p *ContentPublisher) PublishRoomDeleted(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, contracts.EventRoomDeleted, room.Tag, messaging.RoomEventData{Room: room})
}
