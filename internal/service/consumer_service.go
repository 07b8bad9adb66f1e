package service

import (
	"context"
	"encoding/json"

	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the reprocess queue and drives the ingest pipeline
// for each queued paper.
type consumerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	ingestService IIngestService
	logger        logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	ingestService IIngestService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:        pubSub,
		topicName:     topicName,
		ingestService: ingestService,
		logger:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", "Reprocessing paper", map[string]interface{}{
		"paper_id": payload.PaperId.String(),
	})

	res, err := cs.ingestService.Reingest(ctx, payload.PaperId)
	if err != nil {
		cs.logger.Error("ConsumerService", "Reprocess failed", map[string]interface{}{
			"paper_id": payload.PaperId.String(),
			"error":    err.Error(),
		})
		msg.Ack() // The failure is recorded on the paper; retrying won't help without new text
		return
	}

	if res.Status == string(entity.PaperStatusError) {
		cs.logger.Warn("ConsumerService", "Reprocess marked paper as error", map[string]interface{}{
			"paper_id": payload.PaperId.String(),
			"reason":   res.Error,
		})
	}
	msg.Ack()
}
