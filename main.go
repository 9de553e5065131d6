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
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/auth"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/services"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init tracing")
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to db")
	}
	defer database.Close()

	store := repositories.NewStore(database)
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Lifetime)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	logrus.WithFields(logrus.Fields{
		"mode":   rabbitmq.PublisherMode(publisher),
		"reason": rabbitmq.PublisherNoopReason(publisher),
	}).Info("event publisher ready")
	events := telemetry.NewEventEmitter(publisher, cfg.AMQP.RoutingKey, cfg.ServiceName, cfg.Environment)

	hub := ws.NewHub()
	authenticator := middleware.NewAuthenticator(tokens, store.Users())

	friendHandler := handlers.NewFriendHandler(services.NewFriendService(store), hub, events)
	messageHandler := handlers.NewMessageHandler(services.NewMessageService(store), hub, events)
	authHandler := handlers.NewAuthHandler(services.NewAccountService(store.Users(), tokens), events)
	messagesWS := ws.NewMessagesWebSocketHandler(hub, authenticator)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}

	// middlewares
	router.Use(gin.Recovery())
	router.Use(observability.RequestIDMiddleware())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.LoggingMiddleware())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(authenticator.Middleware())

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/messages", messagesWS.Handle)

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/signin", middleware.RateLimit(cfg.SignIn.RPS, cfg.SignIn.Burst), authHandler.SignIn)

	requireIdentity := middleware.RequireIdentity()

	friends := router.Group("/friends", requireIdentity)
	friends.GET("/list", friendHandler.ListFriends)
	friends.GET("/requests/pending", friendHandler.ListPending)
	friends.POST("/request/:username", friendHandler.SendRequest)
	friends.PUT("/request/:id/accept", friendHandler.AcceptRequest)
	friends.PUT("/request/:id/reject", friendHandler.RejectRequest)

	messages := router.Group("/messages", requireIdentity)
	messages.GET("/conversation/:username", messageHandler.GetConversation)
	messages.POST("/send/:username", messageHandler.SendMessage)
	messages.GET("/unread", messageHandler.GetUnread)

	handlers.RegisterDebugRoutes(router, events, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logrus.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	if err := publisher.Close(); err != nil {
		logrus.WithError(err).Warn("publisher close")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("tracer shutdown")
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
