// Package app wires configuration into the runtime pieces shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/gemini"
	"farm-advisor/api/internal/advisory/gpt"
	"farm-advisor/api/internal/config"
	"farm-advisor/api/internal/metrics"
	"farm-advisor/api/internal/store"
)

// SetupLogging installs the apex/log handler and level from cfg.
func SetupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(jsonhandler.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// Engines builds a client for every provider that has a key.
func Engines(cfg *config.Config) *advisory.Engines {
	e := &advisory.Engines{Default: cfg.LLMProvider}
	if cfg.GeminiAPIKey != "" {
		e.Gemini = gemini.New(cfg.ModelClientConfig("gemini"))
	}
	if cfg.OpenAIAPIKey != "" {
		e.GPT = gpt.New(cfg.ModelClientConfig("gpt"))
	}
	return e
}

// Orchestrator builds the pipeline and registers its metrics.
func Orchestrator(cfg *config.Config) *advisory.Orchestrator {
	metrics.Register()
	o := advisory.New(Engines(cfg), cfg.Languages())
	o.DefaultLanguage = cfg.DefaultLanguage
	o.Retry = cfg.RetryPolicy()
	o.Secrets = cfg.Secrets()
	return o
}

// OpenStore connects to DATABASE_URL and ensures the schema.
// It returns nil without error when no database is configured.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.AdviceRepo, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repo := store.NewAdviceRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Infof("db connected: %s", SafeDSNSummary(cfg.DatabaseURL))
	return repo, db, nil
}

// SafeDSNSummary describes a DSN without its password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
