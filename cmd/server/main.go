// Entry point: wires config, storage, the reservation engine and the
// HTTP surface together and runs the server.
package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mayflower/covid19-teststation-termine/internal/booking"
	"github.com/mayflower/covid19-teststation-termine/internal/config"
	"github.com/mayflower/covid19-teststation-termine/internal/database"
	"github.com/mayflower/covid19-teststation-termine/internal/handler"
	"github.com/mayflower/covid19-teststation-termine/internal/middleware"
	"github.com/mayflower/covid19-teststation-termine/internal/queue"
	"github.com/mayflower/covid19-teststation-termine/internal/repository"
	"github.com/mayflower/covid19-teststation-termine/internal/router"
)

func main() {
	cfg := config.Load()

	log, err := config.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := database.Migrate(ctx, db, cfg.MigrationsDir); err != nil {
		cancel()
		log.Fatal("migrations failed", zap.Error(err))
	}
	cancel()

	slots := repository.NewSlotRepo(db)
	appts := repository.NewAppointmentRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)

	brokerURL := queue.BrokerURL()
	publisher := queue.NewPublisher(brokerURL, log)
	go queue.StartBookingConsumer(brokerURL, log)

	engine := booking.New(db, slots, appts, bookings, users, booking.Options{
		ClaimTimeout: cfg.ClaimTimeout,
		Location:     cfg.Location,
		Events:       publisher,
		Logger:       log,
	})

	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	h := handler.New(cfg, db, engine, users)
	router.Register(e, h, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
