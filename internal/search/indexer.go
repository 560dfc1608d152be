package search

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// OfferReindexQueue is the durable queue reindex requests go through.
const OfferReindexQueue = "offer.reindex"

// OfferReindexEvent is the message published after a sync run: the new
// and materially changed offers of that run, batched into one event.
type OfferReindexEvent struct {
	OfferIDs    []int64 `json:"offer_ids"`
	RequestedAt string  `json:"requested_at"`
}

// AMQPIndexer publishes reindex requests to the offer.reindex queue.
// Each sync run produces at most one message.  Errors are logged and
// returned so callers can choose to ignore an unavailable broker without
// interrupting the main flow.
type AMQPIndexer struct {
	URL string
}

func NewAMQPIndexer(url string) *AMQPIndexer { return &AMQPIndexer{URL: url} }

// EnqueueOfferIDs publishes one persistent OfferReindexEvent carrying
// every offer id that needs reindexing.
func (i *AMQPIndexer) EnqueueOfferIDs(ctx context.Context, offerIDs []int64) error {
	if len(offerIDs) == 0 {
		return nil
	}
	conn, err := amqp.Dial(i.URL)
	if err != nil {
		logrus.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Error("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare.  Durable so pending reindex work survives
	// broker restarts.
	if _, err := ch.QueueDeclare(
		OfferReindexQueue, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	); err != nil {
		logrus.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(OfferReindexEvent{
		OfferIDs:    offerIDs,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                // default exchange
		OfferReindexQueue, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		pub,
	); err != nil {
		logrus.WithError(err).Error("rabbitmq: publish failed")
		return err
	}
	return nil
}
