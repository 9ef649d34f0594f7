package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/lang"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/store"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.invalid/bot-token/" + fileID, nil
}

func (b *fakeBot) last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

type fakeRunner struct {
	reqs []advisory.Request
	err  error
}

func (f *fakeRunner) Run(_ context.Context, req advisory.Request) (types.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return types.Result{}, f.err
	}
	return types.Result{UseCase: req.UseCase, Language: req.Language, Value: map[string]any{"ok": true}}, nil
}

type fakeStore struct{ recs []store.Record }

func (f *fakeStore) Insert(_ context.Context, rec store.Record) (store.Record, error) {
	f.recs = append(f.recs, rec)
	return rec, nil
}

func newRouter() (*Router, *fakeBot, *fakeRunner, *fakeStore) {
	bot, run, st := &fakeBot{}, &fakeRunner{}, &fakeStore{}
	r := &Router{
		Bot:       bot,
		Runner:    run,
		Store:     st,
		Sessions:  &Sessions{},
		Providers: []string{"gemini", "gpt"},
		Fetch: func(_ context.Context, url string, _ int64) ([]byte, error) {
			return []byte("bytes of " + url[strings.LastIndex(url, "/")+1:]), nil
		},
	}
	return r, bot, run, st
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestPhotoRunsDiagnosisWithChatSettings(t *testing.T) {
	r, bot, run, st := newRouter()
	ctx := context.Background()

	r.HandleUpdate(ctx, command(42, "/lang hi"))
	r.HandleUpdate(ctx, command(42, "/engine openai"))
	r.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 42},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}})

	require.Len(t, run.reqs, 1)
	req := run.reqs[0]
	assert.Equal(t, types.Diagnosis, req.UseCase)
	assert.Equal(t, "hi", req.Language)
	assert.Equal(t, "gpt", req.Provider)
	assert.Equal(t, "image/jpeg", req.Artifact.MediaType)
	assert.Equal(t, []byte("bytes of large"), req.Artifact.Data)

	assert.Contains(t, bot.last(), `"ok": true`)
	require.Len(t, st.recs, 1)
	assert.Equal(t, "tg:42", st.recs[0].UserID)
	assert.Equal(t, "image", st.recs[0].InputType)
}

func TestLocationThenForecastAndPrices(t *testing.T) {
	r, bot, run, _ := newRouter()
	ctx := context.Background()

	r.HandleUpdate(ctx, command(7, "/forecast"))
	assert.Contains(t, bot.last(), "Share your location")
	assert.Empty(t, run.reqs)

	r.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 7},
		Location: &tgbotapi.Location{Latitude: 18.52, Longitude: 73.85},
	}})
	require.Len(t, run.reqs, 1)
	assert.Equal(t, types.WeatherAdvisory, run.reqs[0].UseCase)

	r.HandleUpdate(ctx, command(7, "/forecast"))
	r.HandleUpdate(ctx, command(7, "/prices green gram"))
	require.Len(t, run.reqs, 3)
	assert.Equal(t, types.WeatherForecast, run.reqs[1].UseCase)
	assert.Equal(t, 73.85, *run.reqs[1].Params.Lon)
	assert.Equal(t, types.MarketPrices, run.reqs[2].UseCase)
	assert.Equal(t, "green gram", run.reqs[2].Params.Crop)
}

func TestFertilizerCommand(t *testing.T) {
	r, bot, run, _ := newRouter()

	r.HandleUpdate(context.Background(), command(1, "/fertilizer"))
	assert.Contains(t, bot.last(), "Usage")

	r.HandleUpdate(context.Background(), command(1, "/fertilizer finger millet tillering"))
	require.Len(t, run.reqs, 1)
	assert.Equal(t, "finger millet", run.reqs[0].Params.Crop)
	assert.Equal(t, "tillering", run.reqs[0].Params.Stage)
}

func TestDocuments(t *testing.T) {
	r, bot, run, st := newRouter()

	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 3},
		Document: &tgbotapi.Document{FileID: "doc", MimeType: "application/zip"},
	}})
	assert.Contains(t, bot.last(), "only read photos and PDF")
	assert.Empty(t, run.reqs)

	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 3},
		Document: &tgbotapi.Document{FileID: "soil", MimeType: "application/pdf", FileName: "soil.pdf"},
	}})
	require.Len(t, run.reqs, 1)
	assert.Equal(t, "soil.pdf", run.reqs[0].Artifact.FileName)
	assert.Equal(t, "pdf", st.recs[0].InputType)
}

func TestErrorsAreFriendly(t *testing.T) {
	r, bot, run, st := newRouter()
	run.err = &types.Error{Kind: types.KindModelUnavailable, Message: "gemini: upstream status 503"}

	r.HandleUpdate(context.Background(), command(5, "/fertilizer rice sowing"))
	assert.Contains(t, bot.last(), "busy")
	assert.NotContains(t, bot.last(), "503")
	assert.Empty(t, st.recs)

	assert.Contains(t, errorText(types.NewError(types.KindInvalidRequest, "lat and lon are required")), "lat and lon are required")
	assert.Contains(t, errorText(errors.New("x")), "Something went wrong")
}

func TestEngineCommandRejectsUnknown(t *testing.T) {
	r, bot, _, _ := newRouter()
	r.HandleUpdate(context.Background(), command(9, "/engine llama"))
	assert.Contains(t, bot.last(), "Unknown engine")
	assert.Equal(t, "", r.Sessions.Get(9).Provider)
}

func TestSessionsConcurrentUpdates(t *testing.T) {
	s := &Sessions{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Update(1, func(ss *session) { ss.Language = "hi" })
			} else {
				s.Update(1, func(ss *session) { ss.Provider = "gpt" })
			}
		}(i)
	}
	wg.Wait()
	got := s.Get(1)
	assert.Equal(t, "hi", got.Language)
	assert.Equal(t, "gpt", got.Provider)
}

func TestLangCommandChecksTable(t *testing.T) {
	r, bot, _, _ := newRouter()
	r.Languages = lang.DefaultTable()

	r.HandleUpdate(context.Background(), command(11, "/lang"))
	assert.Contains(t, bot.last(), "Available: bn en gu hi kn ml mr or pa ta te")

	r.HandleUpdate(context.Background(), command(11, "/lang xx"))
	assert.Contains(t, bot.last(), "Unknown language")
	assert.Empty(t, r.Sessions.Get(11).Language)

	r.HandleUpdate(context.Background(), command(11, "/lang TA"))
	assert.Equal(t, "ta", r.Sessions.Get(11).Language)
}
