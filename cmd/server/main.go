package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/analysis/weather"
	"github.com/mauzenfan/safety-backend-go/internal/app"
	"github.com/mauzenfan/safety-backend-go/internal/config"
	"github.com/mauzenfan/safety-backend-go/internal/database"
	"github.com/mauzenfan/safety-backend-go/internal/logger"
)

func main() {
	os.Exit(serve())
}

// serve runs the server until a shutdown signal and returns the process exit code.
// Deferred cleanup runs before main exits.
func serve() int {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return 1
	}
	log.Info("Server stopped")
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.DBPath}, log.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.MigrateUp(db, log.Named("database")); err != nil {
		return err
	}

	deps := app.Dependencies{DB: db, Logger: log}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		deps.Redis = rdb
	}

	if cfg.Weather.APIKey != "" {
		deps.Forecasts = weather.NewOpenWeatherClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, log.Named("openweather"))
	} else {
		log.Warn("WEATHER_API_KEY not set, weather checks disabled")
	}

	a := app.New(ctx, cfg, deps)

	scheduler := a.Scheduler(cfg.Schedule.LearnInterval, cfg.Schedule.DetectInterval, cfg.Schedule.WeatherInterval, log.Named("scheduler"))
	scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("failed to serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down server", zap.Error(err))
	}
	scheduler.Wait()
	return nil
}
