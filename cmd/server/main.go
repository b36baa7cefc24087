package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/transit-admin-console/internal/apiclient"
	"github.com/iliyamo/transit-admin-console/internal/cache"
	"github.com/iliyamo/transit-admin-console/internal/config"
	"github.com/iliyamo/transit-admin-console/internal/console"
	"github.com/iliyamo/transit-admin-console/internal/database"
	"github.com/iliyamo/transit-admin-console/internal/handler"
	"github.com/iliyamo/transit-admin-console/internal/middleware"
	"github.com/iliyamo/transit-admin-console/internal/queue"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/router"
	queue_publisher "github.com/iliyamo/transit-admin-console/internal/service"
	"github.com/iliyamo/transit-admin-console/internal/view"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the company cache stays per process
	// and rate limiting is off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	// Audit trail is optional too; a nil repo records nothing.
	var audit *repository.AuditRepo
	if cfg.AuditDB.Enabled() {
		db, err := database.Open(ctx, cfg.AuditDB)
		if err != nil {
			log.Fatalf("audit db: %v", err)
		}
		defer db.Close()
		audit = repository.NewAuditRepo(db)
		if err := audit.EnsureSchema(ctx); err != nil {
			log.Fatalf("audit schema: %v", err)
		}
	}

	api := apiclient.New(cfg.APIRoot, cfg.APITimeout)
	companies := cache.NewCompanyCache(config.LoadCompanyCacheConfig(), rdb)
	publisher := queue_publisher.New(cfg.AMQPURL, cfg.EventsEnabled)
	cons := console.New(api, companies, publisher, audit, cfg.Location)

	if cfg.EventsEnabled {
		go func() {
			err := queue.StartEntityConsumer(ctx, cfg.AMQPURL, func(ev queue.EntityChangedEvent) {
				if ev.AffectsCompanies() {
					companies.Forget()
				}
			})
			log.Printf("entity-consumer: stopped: %v", err)
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = view.MustRenderer()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	sessionTTL := time.Duration(cfg.SessionTTLMin) * time.Minute
	router.RegisterRoutes(e)
	router.RegisterConsole(e,
		handler.NewAuthHandler(api, cfg.SessionSecret, sessionTTL, cfg.Env == "prod"),
		handler.NewConsoleHandler(cons, audit, cfg.APITimeout+5*time.Second),
		cfg.SessionSecret, limit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, api=%s)", addr, cfg.Env, cfg.APIRoot)
	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
