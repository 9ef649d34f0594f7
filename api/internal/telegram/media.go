package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/util"
)

var errTooLarge = errors.New("file exceeds the upload limit")

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	ph, ok := largestWithin(msg.Photo, r.limit())
	if !ok {
		r.tooLarge(cid)
		return
	}
	data, err := r.fetchFile(ctx, ph.FileID)
	if errors.Is(err, errTooLarge) {
		r.tooLarge(cid)
		return
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.send(cid, "🔍 Photo received. Looking for problems…")
	// Telegram re-encodes photos as JPEG.
	art := types.Artifact{Data: data, MediaType: "image/jpeg"}
	r.advise(ctx, cid, types.Diagnosis, art, types.Params{}, "image")
}

func (r *Router) acceptDocument(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	mime := util.BaseMIME(doc.MimeType)
	if !util.IsPDFMIME(mime) && !util.IsImageMIME(mime) {
		r.send(cid, "⚠️ I can only read photos and PDF reports.")
		return
	}
	if int64(doc.FileSize) > r.limit() {
		r.tooLarge(cid)
		return
	}
	data, err := r.fetchFile(ctx, doc.FileID)
	if errors.Is(err, errTooLarge) {
		r.tooLarge(cid)
		return
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}
	inputType := "image"
	if util.IsPDFMIME(mime) {
		inputType = "pdf"
		r.send(cid, "📄 Report received. Reading it…")
	} else {
		r.send(cid, "🔍 Photo received. Looking for problems…")
	}
	art := types.Artifact{Data: data, MediaType: doc.MimeType, FileName: doc.FileName}
	r.advise(ctx, cid, types.Diagnosis, art, types.Params{}, inputType)
}

func (r *Router) fetchFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram file lookup failed")
	}
	fetch := r.Fetch
	if fetch == nil {
		fetch = download
	}
	data, err := fetch(ctx, url, r.limit())
	if errors.Is(err, errTooLarge) {
		return nil, errTooLarge
	}
	if err != nil {
		// the URL embeds the bot token
		return nil, fmt.Errorf("telegram file download failed")
	}
	return data, nil
}

func download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}

// largestWithin picks the biggest photo size that fits limit. Sizes without a
// known FileSize are assumed to fit; the download still enforces the limit.
func largestWithin(sizes []tgbotapi.PhotoSize, limit int64) (tgbotapi.PhotoSize, bool) {
	for i := len(sizes) - 1; i >= 0; i-- {
		if int64(sizes[i].FileSize) <= limit {
			return sizes[i], true
		}
	}
	return tgbotapi.PhotoSize{}, false
}

func (r *Router) limit() int64 {
	if r.MaxUpload <= 0 {
		return 10 << 20
	}
	return r.MaxUpload
}

func (r *Router) tooLarge(chatID int64) {
	r.send(chatID, fmt.Sprintf("⚠️ The file is too large (limit %d MB).", r.limit()>>20))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
