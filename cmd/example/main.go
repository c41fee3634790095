// Command example runs a webhook endpoint that subscribes to stream.online
// notifications for one broadcaster and logs every delivered event.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MindfulMinun/twitch-api/eventsub"
	"github.com/MindfulMinun/twitch-api/internal/config"
	"github.com/MindfulMinun/twitch-api/internal/logging"
	"github.com/MindfulMinun/twitch-api/twitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	tokens := twitch.NewAppTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret)
	client := twitch.NewClient(cfg.TwitchClientID, tokens)

	receiver, err := eventsub.NewReceiver(cfg.WebhookSecret)
	if err != nil {
		slog.Error("Failed to create receiver", "error", err)
		os.Exit(1)
	}
	manager := eventsub.NewManager(client.EventSub, receiver, cfg.WebhookCallbackURL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLoggerMiddleware())
	e.POST("/webhooks/eventsub", echo.WrapHandler(receiver))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("Server started", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := subscribeStreamOnline(ctx, client, manager, cfg.BroadcasterLogin)
	if err != nil {
		slog.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	go consumeEvents(ctx, reg)

	waitForShutdown(e, receiver, manager, reg)
}

func subscribeStreamOnline(ctx context.Context, client *twitch.Client, manager *eventsub.Manager, login string) (*eventsub.Registration, error) {
	callCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	broadcaster, err := client.Users.GetByLogin(callCtx, login)
	if err != nil {
		return nil, err
	}

	reg, err := manager.Subscribe(callCtx, eventsub.TypeStreamOnline, "1", map[string]string{
		"broadcaster_user_id": broadcaster.ID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Subscribed to stream.online", "broadcaster", broadcaster.Login, "subscription_id", reg.ID())
	return reg, nil
}

func consumeEvents(ctx context.Context, reg *eventsub.Registration) {
	for event := range reg.Events(ctx) {
		switch payload := event.Payload.(type) {
		case *eventsub.StreamOnlineEvent:
			slog.Info("Stream went live", "broadcaster", payload.BroadcasterUserLogin, "started_at", payload.StartedAt)
		default:
			slog.Info("Received event", "type", event.Type)
		}
	}
	slog.Info("Event stream closed")
}

func waitForShutdown(e *echo.Echo, receiver *eventsub.Receiver, manager *eventsub.Manager, reg *eventsub.Registration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.Unsubscribe(shutdownCtx, reg); err != nil {
		slog.Error("Failed to unsubscribe", "error", err)
	}
	receiver.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}

func requestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
