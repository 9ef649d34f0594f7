package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/lang"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/store"
	"farm-advisor/api/internal/util"
)

const maxMessage = 3900

// Bot is the part of the Telegram API the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Runner interface {
	Run(ctx context.Context, req advisory.Request) (types.Result, error)
}

type ResultStore interface {
	Insert(ctx context.Context, rec store.Record) (store.Record, error)
}

type Router struct {
	Bot      Bot
	Runner   Runner
	Store    ResultStore
	Sessions *Sessions
	// Providers lists the engine names /engine accepts.
	Providers []string
	// Languages limits /lang to known codes; the zero table accepts any code.
	Languages lang.Table
	Timeout   time.Duration
	MaxUpload int64
	// Fetch downloads a file URL; nil uses download.
	Fetch func(ctx context.Context, url string, limit int64) ([]byte, error)
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case msg.Location != nil:
		lat, lon := msg.Location.Latitude, msg.Location.Longitude
		r.Sessions.Update(cid, func(s *session) { s.Lat, s.Lon = &lat, &lon })
		r.send(cid, "📍 Location saved. Preparing the weather advisory…")
		r.advise(ctx, cid, types.WeatherAdvisory, types.Artifact{}, types.Params{Lat: &lat, Lon: &lon}, "params")
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case msg.Document != nil:
		r.acceptDocument(ctx, msg)
	default:
		r.send(cid, helpText)
	}
}

// advise runs one request for the chat and replies with the result.
func (r *Router) advise(ctx context.Context, cid int64, u types.UseCase, art types.Artifact, p types.Params, inputType string) {
	s := r.Sessions.Get(cid)
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.Runner.Run(ctx, advisory.Request{
		UseCase:  u,
		Artifact: art,
		Params:   p,
		Language: s.Language,
		Provider: s.Provider,
	})
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if r.Store != nil {
		if _, err := r.Store.Insert(ctx, store.Record{
			UserID:    fmt.Sprintf("tg:%d", cid),
			UseCase:   res.UseCase,
			Language:  res.Language,
			Provider:  res.Provider,
			Model:     res.Model,
			InputType: inputType,
			Result:    res.Value,
		}); err != nil {
			log.WithError(err).WithField("chat_id", cid).Error("store result")
		}
	}
	r.SendResult(cid, res)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("telegram send")
	}
}

// SendResult replies with the indented JSON result, truncated to fit one message.
func (r *Router) SendResult(chatID int64, res types.Result) {
	b, err := json.MarshalIndent(res.Value, "", "  ")
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, util.Truncate(string(b), maxMessage))
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, errorText(err))
}

func errorText(err error) string {
	switch types.KindOf(err) {
	case types.KindUnsupportedInput:
		return "⚠️ I can only read photos and PDF reports."
	case types.KindInvalidRequest:
		return "⚠️ " + strings.TrimPrefix(err.Error(), string(types.KindInvalidRequest)+": ")
	case types.KindParseFailure:
		return "⚠️ The answer came back garbled. Please try again."
	case types.KindModelUnavailable, types.KindModelEmptyResponse:
		return "⚠️ The advisory service is busy right now. Please try again in a minute."
	}
	return "⚠️ Something went wrong. Please try again."
}
