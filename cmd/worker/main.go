// cmd/worker/main.go
//
// Audit worker: consumes campaign events off RabbitMQ and writes them to
// the audit log. Purely after-the-fact; dispatch never waits on it.
package main

import (
	"encoding/json"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/textpilot/bulksms-backend/internal/config"
	"github.com/textpilot/bulksms-backend/internal/events"
	"github.com/textpilot/bulksms-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("failed to open a channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.AMQP.Queue, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		log.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("failed to register consumer", zap.Error(err))
	}

	log.Info("audit worker running, waiting for campaign events")

	for d := range msgs {
		var ev events.CampaignEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Warn("dropping malformed event", zap.Error(err))
			d.Ack(false)
			continue
		}

		log.Info("campaign audit",
			zap.String("campaign_id", ev.CampaignID),
			zap.String("name", ev.Name),
			zap.String("provider", string(ev.Provider)),
			zap.String("status", string(ev.Status)),
			zap.Int("total", ev.Stats.Total),
			zap.Int("sent", ev.Stats.Sent),
			zap.Int("failed", ev.Stats.Failed),
			zap.Time("sent_at", ev.SentAt))

		d.Ack(false)
	}
}
