package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/toguzkorgool-backend/internal/config"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/events"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/repository"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/repository/storage"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/timer"
	"github.com/rocketscienceinc/toguzkorgool-backend/internal/usecase"
	"github.com/rocketscienceinc/toguzkorgool-backend/transport/rest"
	"github.com/rocketscienceinc/toguzkorgool-backend/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := websocket.NewHub(logger)

	publishers := []events.Publisher{hub}

	if conf.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(conf.NATS.URL)
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}

		log.Info("Publishing room events to NATS", "url", conf.NATS.URL)
		publishers = append(publishers, natsPublisher)
	}

	if conf.Redis.Enabled {
		redisClient, err := storage.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			_ = events.NewMultiPublisher(publishers...).Close()
			return fmt.Errorf("could not connect to redis: %w", err)
		}

		log.Info("Publishing room events to Redis", "addr", conf.Redis.GetRedisAddr())
		publishers = append(publishers, events.NewRedisPublisher(redisClient))
	}

	publisher := events.NewAsyncPublisher(logger, events.NewMultiPublisher(publishers...), conf.Game.EventBuffer)

	roomRepo := repository.NewRoomRepository()
	gameRepo := repository.NewGameRepository()

	clk := clock.New()
	scheduler := timer.NewScheduler(logger, clk, conf.Game.TimerWorkers)
	timerService := timer.NewService(logger, clk, scheduler, roomRepo, publisher, conf.Game.TickInterval)

	defer func() {
		timerService.CancelAll()
		scheduler.Shutdown()

		if err := publisher.Close(); err != nil {
			log.Error("could not close event publishers", "error", err)
		}

		log.Info("Shutdown complete")
	}()

	gameManager := usecase.NewGameManager(logger, roomRepo, gameRepo, timerService, publisher, conf.Game.HistoryPageSize)
	roomManager := usecase.NewRoomManager(logger, roomRepo, gameRepo, timerService, publisher)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, roomManager, gameManager).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := websocket.New(logger, hub, gameManager, roomManager).Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
		return nil
	}
}
