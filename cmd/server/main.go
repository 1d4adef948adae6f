// cmd/server/main.go
package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/textpilot/bulksms-backend/internal/config"
	"github.com/textpilot/bulksms-backend/internal/db"
	"github.com/textpilot/bulksms-backend/internal/dispatch"
	"github.com/textpilot/bulksms-backend/internal/events"
	"github.com/textpilot/bulksms-backend/internal/httpapi"
	"github.com/textpilot/bulksms-backend/internal/logger"
	"github.com/textpilot/bulksms-backend/internal/provider"
	"github.com/textpilot/bulksms-backend/internal/segment"
	"github.com/textpilot/bulksms-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	conn, err := db.Open(cfg.Postgres)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer conn.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Warn("event broker unavailable, campaign events disabled", zap.Error(err))
		} else {
			publisher = amqpPub
			defer amqpPub.Close()
		}
	}

	timeout := cfg.Dispatch.Timeout()
	registry := provider.NewRegistry(
		provider.NewMSG91(cfg.Providers.MSG91.BaseURL, cfg.Providers.MSG91.APIKey, timeout, log),
		provider.NewTextlocal(cfg.Providers.Textlocal.BaseURL, cfg.Providers.Textlocal.APIKey, cfg.Providers.Textlocal.Sender, timeout, log),
		provider.NewFast2SMS(cfg.Providers.Fast2SMS.BaseURL, cfg.Providers.Fast2SMS.APIKey, cfg.Dispatch.Concurrency, timeout, log),
		provider.NewWALink(),
	)

	campaignStore := &store.PostgresCampaignStore{DB: conn}
	dispatcher := dispatch.New(registry, campaignStore, publisher, log)
	dispatcher.Segments = segment.Limits{
		GSMSingle:     160,
		GSMChunk:      153,
		UnicodeSingle: cfg.Dispatch.UnicodeSingleLimit,
		UnicodeChunk:  cfg.Dispatch.UnicodeChunkSize,
	}

	handler := &httpapi.Handler{
		Dispatcher: dispatcher,
		Store:      campaignStore,
		Contacts:   &store.PostgresContactStore{DB: conn},
		Templates:  &store.PostgresTemplateStore{DB: conn},
		Log:        log,
	}

	log.Info("server running", zap.String("addr", cfg.HTTP.Addr))
	if err := http.ListenAndServe(cfg.HTTP.Addr, handler.Router()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
