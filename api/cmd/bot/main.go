package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"farm-advisor/api/internal/app"
	"farm-advisor/api/internal/config"
	"farm-advisor/api/internal/httpserver"
	"farm-advisor/api/internal/telegram"
)

func main() {
	cfg := config.Load()
	app.SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := app.Orchestrator(cfg)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram: could not authorize bot")
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:       bot,
		Runner:    orch,
		Sessions:  &telegram.Sessions{},
		Providers: orch.Engines.Names(),
		Languages: orch.Languages,
		MaxUpload: cfg.MaxUploadBytes,
	}
	repo, db, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("result store")
	}
	if repo != nil {
		defer db.Close()
		r.Store = repo
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			pctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(pctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, addr, mux, bot, r, webhookURL)
		return
	}
	go func() {
		if err := httpserver.Run(ctx, addr, mux); err != nil {
			log.WithError(err).Error("health server")
		}
	}()
	runPolling(ctx, bot, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) })
}

func startWebhookMode(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	// secret path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal("telegram: bad webhook url")
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("telegram: could not set webhook")
	}

	updates := make(chan tgbotapi.Update, bot.Buffer)
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		updates <- *upd
	})

	go func() {
		for upd := range updates {
			go r.HandleUpdate(ctx, upd)
		}
	}()

	log.Infof("webhook listening on %s/webhook/…", addr)
	if err := httpserver.Run(ctx, addr, mux); err != nil {
		log.WithError(err).Fatal("webhook server")
	}
	close(updates)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			// the error text may carry the request URL with the token
			log.Warnf("polling error; retry in %v", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func shortHash(s string) string {
	// FNV-1a, stable for a given token
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
