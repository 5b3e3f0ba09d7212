package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/samuelsuu/subuzz/internal/config"
	"github.com/samuelsuu/subuzz/internal/handlers"
	"github.com/samuelsuu/subuzz/internal/identity"
	"github.com/samuelsuu/subuzz/internal/middleware"
	"github.com/samuelsuu/subuzz/internal/observability"
	"github.com/samuelsuu/subuzz/internal/push"
	"github.com/samuelsuu/subuzz/internal/store"
	"github.com/samuelsuu/subuzz/internal/telemetry"
	"github.com/samuelsuu/subuzz/internal/ws"
)

const serviceName = "subuzz-relay"

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := store.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	logger.Info().Msg("database connected, migrations applied")

	publisher := observability.NewPublisher(logger, cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(logger, publisher, "audit.relay", serviceName, cfg.Env)

	verifier := identity.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey)

	messageStore := store.NewMessageRepo(db)
	groupStore := store.NewGroupRepo(db)
	pushStore := store.NewPushRepo(db)

	var sender push.Sender
	webpushSender := push.NewWebPushSender(cfg.VAPIDSubscriber, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if webpushSender.Enabled() {
		sender = webpushSender
	} else {
		logger.Warn().Msg("VAPID keys not configured, web push disabled")
	}

	hub := ws.NewHub(logger.With().Str("component", "hub").Logger())
	notifier := ws.NewNotifier(hub, groupStore, pushStore, sender, logger.With().Str("component", "notifier").Logger())
	wsRouter := ws.NewRouter(hub, messageStore, notifier, audit, logger.With().Str("component", "router").Logger(), cfg.SendTimeout)
	membership := ws.NewMembership(hub, groupStore, audit, logger.With().Str("component", "membership").Logger())
	wsHandler := ws.NewHandler(hub, verifier, membership, wsRouter, audit, logger.With().Str("component", "ws").Logger(), cfg.AuthTimeout)

	pushHandler := handlers.NewPushHandler(pushStore, logger.With().Str("component", "push_handler").Logger())
	onlineHandler := handlers.NewOnlineHandler(hub)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authRequired := middleware.Auth(verifier)

	router.GET("/ws", wsHandler.Handle)
	router.POST("/api/push/subscribe", authRequired, pushHandler.Subscribe)
	router.GET("/api/online", authRequired, onlineHandler.List)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
}
