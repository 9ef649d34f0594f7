package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"farm-advisor/api/internal/app"
	"farm-advisor/api/internal/config"
	"farm-advisor/api/internal/handle"
	"farm-advisor/api/internal/httpserver"
)

func main() {
	cfg := config.Load()
	app.SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := app.Orchestrator(cfg)

	var results handle.ResultStore
	repo, db, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("result store")
	}
	if repo != nil {
		defer db.Close()
		results = repo
	} else {
		log.Warn("DATABASE_URL is empty; results will not be stored")
	}

	gin.SetMode(gin.ReleaseMode)
	h := handle.New(orch, results, cfg.MaxUploadBytes)

	log.WithFields(log.Fields{
		"provider": cfg.LLMProvider,
		"engines":  orch.Engines.Names(),
	}).Info("farm-advisor starting")
	if err := httpserver.Run(ctx, ":"+cfg.Port, h.Router()); err != nil {
		log.WithError(err).Fatal("http server")
	}
}
