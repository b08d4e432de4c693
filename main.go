package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xtito/network-state-bot/internal/config"
	"github.com/0xtito/network-state-bot/internal/db"
	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/handlers"
	"github.com/0xtito/network-state-bot/internal/ingest"
	"github.com/0xtito/network-state-bot/internal/middleware"
	"github.com/0xtito/network-state-bot/internal/observability"
	"github.com/0xtito/network-state-bot/internal/rabbitmq"
	"github.com/0xtito/network-state-bot/internal/repositories"
	"github.com/0xtito/network-state-bot/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer publisher.Close()
	emitter := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, "network-state-bot", cfg.Environment)

	messageRepo := repositories.NewMessageRepo(database)

	restClient := discord.NewClient(cfg.BotToken)
	session := discord.NewSession(restClient, cfg.BotToken)

	listener := ingest.NewListener(messageRepo, emitter, cfg.IngestQueueSize)
	session.HandleMessageCreate(listener.Enqueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)
	go func() {
		for err := range listener.Errors() {
			log.Printf("ingest error observed: %v", err)
		}
	}()

	if err := session.Open(ctx); err != nil {
		log.Fatalf("failed to open gateway session: %v", err)
	}
	defer session.Close()

	messageHandler := handlers.NewMessageHandler(messageRepo, restClient, emitter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	apiKeyAuth := middleware.APIKeyAuth(cfg)

	router.POST("/messages", apiKeyAuth, messageHandler.RetrieveMessages)
	router.POST("/messages/send", apiKeyAuth, messageHandler.SendMessage)

	router.GET("/healthz", messageHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
