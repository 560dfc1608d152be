// Package queue contains the background consumer that listens to the
// offer.reindex queue and refreshes the redis search index.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/search"
)

// DocumentSource loads search documents from the catalog.
type DocumentSource interface {
	// SearchDocumentsByIDs returns a document for every active offer in
	// ids plus the ids that must be removed from the index (inactive or
	// deleted offers).
	SearchDocumentsByIDs(ctx context.Context, ids []int64) ([]search.Document, []int64, error)
}

// ReindexConsumer drains offer.reindex and applies each event to the
// search index.
type ReindexConsumer struct {
	URL    string
	Source DocumentSource
	Store  search.DocumentStore
}

// Start connects to RabbitMQ, declares the offer.reindex queue (durable)
// and starts consuming.  It runs a reconnect loop with capped backoff and
// never returns; processing errors are logged and the offending message
// rejected so the index keeps moving.
func (c *ReindexConsumer) Start() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logrus.WithError(err).Warnf("reindex-consumer: dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(conn); err != nil {
			logrus.WithError(err).Warn("reindex-consumer: consume loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *ReindexConsumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		logrus.WithError(err).Warn("reindex-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(search.OfferReindexQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(search.OfferReindexQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			logrus.WithError(err).Error("reindex-consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *ReindexConsumer) handleMessage(body []byte) error {
	var ev search.OfferReindexEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if len(ev.OfferIDs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	docs, removed, err := c.Source.SearchDocumentsByIDs(ctx, ev.OfferIDs)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for _, doc := range docs {
		if err := c.Store.Save(ctx, doc); err != nil {
			return fmt.Errorf("save document %d: %w", doc.OfferID, err)
		}
	}
	for _, id := range removed {
		if err := c.Store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete document %d: %w", id, err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"indexed": len(docs),
		"removed": len(removed),
	}).Info("reindex-consumer: event applied")
	return nil
}
