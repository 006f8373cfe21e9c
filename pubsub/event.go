package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	tvtrader "github.com/wouterman/tvtrader-sub001"
)

type EventService struct {
	client *Client
	logger tvtrader.Logger
}

func NewEventService(client *Client, logger tvtrader.Logger) *EventService {
	return &EventService{client, logger}
}

func (es *EventService) Publish(event *tvtrader.Event) {
	es.publishOnNotificationsTopic(context.TODO(), event)
}

func (es *EventService) publishOnNotificationsTopic(
	ctx context.Context,
	event *tvtrader.Event,
) {
	topicLogger := es.logger.WithField("topic", "notifications")

	messageData, err := json.Marshal(&notificationEvent{
		Exchange: event.Exchange,
		Account:  event.Account,
		Payload:  event.Payload,
	})
	if err != nil {
		topicLogger.Errorf("could not marshal trading event: [%v]", err)
		return
	}

	es.publishOnTopic(
		ctx,
		es.client.notificationsTopic,
		messageData,
		topicLogger,
	)
}

func (es *EventService) publishOnTopic(
	ctx context.Context,
	topic *pubsub.Topic,
	messageData []byte,
	topicLogger tvtrader.Logger,
) {
	result := topic.Publish(ctx, &pubsub.Message{
		Data: messageData,
	})

	go func() {
		id, err := result.Get(ctx)
		if err != nil {
			topicLogger.Errorf(
				"could not publish trading event: [%v]",
				err,
			)
			return
		}

		topicLogger.Infof("published trading event with ID: [%v]", id)
	}()
}

type notificationEvent struct {
	Exchange string
	Account  string
	Payload  string
}
