package service

import (
	"encoding/json"

	"citation-assist-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishIngest(paperId uuid.UUID) error
}

// publisherService enqueues reprocess work on the in-process queue so the
// HTTP handler returns immediately and the consumer does the heavy lifting.
type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (p *publisherService) PublishIngest(paperId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishIngestMessage{PaperId: paperId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return p.pubSub.Publish(p.topicName, msg)
}
