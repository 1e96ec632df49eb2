package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kbazanov/bookly/internal/apperrors"
	"github.com/kbazanov/bookly/internal/blocklist"
	"github.com/kbazanov/bookly/internal/config"
	"github.com/kbazanov/bookly/internal/es"
	"github.com/kbazanov/bookly/internal/handlers"
	"github.com/kbazanov/bookly/internal/logging"
	authmw "github.com/kbazanov/bookly/internal/middleware/auth"
	"github.com/kbazanov/bookly/internal/mykafka"
	"github.com/kbazanov/bookly/internal/token"
	httpserver "github.com/kbazanov/bookly/internal/transport/http"
)

const mailLinkSalt = "bookly-mail-links"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	secret := []byte(configuration.JWT_SECRET)
	codec := token.NewCodec(secret)
	links := token.NewSerializer(secret, mailLinkSalt, configuration.ACTION_TOKEN_MAX_AGE)

	blist, err := blocklist.New(configuration.REDIS_URL)
	if err != nil {
		log.Fatalf("blocklist init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration, logger)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(logging.RequestLogger(logger))

	guard := &authmw.TokenGuard{Codec: codec, Blocklist: blist, DB: db}

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:        db,
			Codec:     codec,
			Links:     links,
			Blocklist: blist,
			Producer:  prod,
			Domain:    configuration.DOMAIN,
		},
		BookHandler:   &handlers.BookHandler{DB: db, Producer: prod, ES: esClient, ESIndex: "books"},
		ReviewHandler: &handlers.ReviewHandler{DB: db},
		Guard:         guard,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.SERVER_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", configuration.SERVER_ADDR)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := blist.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
