// Package events publishes campaign audit records onto RabbitMQ once a
// dispatch pass finishes. Consumers (cmd/worker) turn them into audit log
// entries; nothing in the dispatch path depends on a consumer being up.
package events

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// CampaignEvent is the audit record for one finished dispatch pass.
type CampaignEvent struct {
	CampaignID string               `json:"campaign_id"`
	Name       string               `json:"name"`
	Provider   model.Provider       `json:"provider"`
	Status     model.CampaignStatus `json:"status"`
	Stats      model.CampaignStats  `json:"stats"`
	SentAt     time.Time            `json:"sent_at"`
}

type Publisher interface {
	CampaignFinished(ev CampaignEvent) error
	Close() error
}

// AMQPPublisher publishes events to a durable queue.
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) CampaignFinished(ev CampaignEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

// NopPublisher drops every event; used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) CampaignFinished(CampaignEvent) error { return nil }
func (NopPublisher) Close() error                         { return nil }

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = NopPublisher{}
)
