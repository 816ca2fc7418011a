package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authgate/internal/audit"
	"github.com/Skotchmaster/authgate/internal/config"
	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/httpserver"
	"github.com/Skotchmaster/authgate/internal/middleware"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/token"
	"github.com/Skotchmaster/authgate/pkg/cache"
	"github.com/Skotchmaster/authgate/pkg/logging"
	loggingmw "github.com/Skotchmaster/authgate/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	redisCache, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CachePrefix)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	defer redisCache.Close()

	recorder, err := audit.NewRecorder(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	issuer := &token.Issuer{
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	validator := &token.Validator{Audience: cfg.Audience}
	revocation := token.NewRevocationStore(redisCache)
	manager := token.NewManager(issuer, validator, revocation, cfg.RevocationFailClosed)

	users := &repo.GormRepo{DB: db}

	svc := &service.AuthService{
		Repo:     users,
		Tokens:   manager,
		Producer: producer,
		Audit:    recorder,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Pipeline:    middleware.NewPipeline(manager, users),
	})

	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
