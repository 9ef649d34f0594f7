package handle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/extract"
	"farm-advisor/api/internal/advisory/prompt"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/store"
	"farm-advisor/api/internal/util"
)

const (
	headerUserID   = "X-User-ID"
	headerLanguage = "X-User-Language"
)

// common carries the fields every advisory request may set.
type common struct {
	Language string `json:"language"`
	LLMName  string `json:"llm_name"`
	Provider string `json:"provider"`
}

func (cm common) provider() string {
	if cm.LLMName != "" {
		return cm.LLMName
	}
	return cm.Provider
}

type locationRequest struct {
	common
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Lng  *float64 `json:"lng"`
	Crop string   `json:"crop"`
	Date string   `json:"date"`
}

func (r locationRequest) params() types.Params {
	lon := r.Lon
	if lon == nil {
		lon = r.Lng
	}
	return types.Params{Lat: r.Lat, Lon: lon, Crop: strings.TrimSpace(r.Crop), Date: strings.TrimSpace(r.Date)}
}

type diagnoseRequest struct {
	common
	FileB64  string `json:"file_b64"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
}

type fertilizerRequest struct {
	common
	Crop  string `json:"crop"`
	Stage string `json:"stage"`
}

type projectRequest struct {
	common
	Report json.RawMessage `json:"report"`
}

// bodyLimit leaves room for a base64-encoded file of maxUpload bytes plus
// the surrounding form or JSON fields.
func (h *Handle) bodyLimit() int64 {
	return int64(base64.StdEncoding.EncodedLen(int(h.maxUpload))) + 1<<20
}

// Diagnose accepts a multipart "file" or JSON with base64 content.
func (h *Handle) Diagnose(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit())

	var (
		cm  common
		art types.Artifact
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "multipart field \"file\" is required")
			return
		}
		if fh.Size > h.maxUpload {
			badRequest(c, "file exceeds %d bytes", h.maxUpload)
			return
		}
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "file could not be read")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
		if err != nil {
			badRequest(c, "file could not be read")
			return
		}
		art = types.Artifact{Data: data, MediaType: fh.Header.Get("Content-Type"), FileName: fh.Filename}
		cm = common{Language: c.PostForm("language"), LLMName: c.PostForm("llm_name"), Provider: c.PostForm("provider")}
	} else {
		var req diagnoseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "bad json: %v", err)
			return
		}
		data, mimeFromURL, err := util.DecodeBase64MaybeDataURL(req.FileB64)
		if err != nil || len(data) == 0 {
			badRequest(c, "bad file_b64")
			return
		}
		if int64(len(data)) > h.maxUpload {
			badRequest(c, "file exceeds %d bytes", h.maxUpload)
			return
		}
		mime := strings.TrimSpace(req.MimeType)
		if mime == "" {
			mime = mimeFromURL
		}
		art = types.Artifact{Data: data, MediaType: mime, FileName: req.FileName}
		cm = req.common
	}

	inputType := "image"
	if util.IsPDFMIME(util.PickMIME(art.MediaType, "", art.Data)) {
		inputType = "pdf"
	}
	h.run(c, advisory.Request{UseCase: types.Diagnosis, Artifact: art}, cm, inputType)
}

func (h *Handle) FertilizerPlan(c *gin.Context) {
	var req fertilizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json: %v", err)
		return
	}
	p := types.Params{Crop: strings.TrimSpace(req.Crop), Stage: strings.TrimSpace(req.Stage)}
	h.run(c, advisory.Request{UseCase: types.FertilizerPlan, Params: p}, req.common, "params")
}

func (h *Handle) WeatherAdvisory(c *gin.Context) { h.location(c, types.WeatherAdvisory) }
func (h *Handle) WeatherForecast(c *gin.Context) { h.location(c, types.WeatherForecast) }
func (h *Handle) MarketPrices(c *gin.Context)    { h.location(c, types.MarketPrices) }

func (h *Handle) location(c *gin.Context, u types.UseCase) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json: %v", err)
		return
	}
	h.run(c, advisory.Request{UseCase: u, Params: req.params()}, req.common, "params")
}

// ProjectPlan takes the report as a JSON value or as a string holding JSON.
func (h *Handle) ProjectPlan(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json: %v", err)
		return
	}
	report, err := decodeReport(req.Report)
	if err != nil {
		badRequest(c, "report: %v", err)
		return
	}
	h.run(c, advisory.Request{UseCase: types.ProjectPlan, Params: types.Params{Report: report}}, req.common, "params")
}

func decodeReport(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("is required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		v, err := extract.ParseValue(s)
		if err != nil {
			return nil, errors.New("string is not valid JSON")
		}
		return v, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type adviceResponse struct {
	ID       string        `json:"id"`
	UseCase  types.UseCase `json:"use_case"`
	Language string        `json:"language"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Result   any           `json:"result"`
}

func (h *Handle) run(c *gin.Context, req advisory.Request, cm common, inputType string) {
	req.Language = strings.TrimSpace(cm.Language)
	if req.Language == "" {
		req.Language = strings.TrimSpace(c.GetHeader(headerLanguage))
	}
	req.Provider = cm.provider()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.runner.Run(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	if keys := prompt.ExpectedKeys(res.UseCase); !extract.HasKeys(res.Value, keys...) {
		log.WithFields(log.Fields{"use_case": res.UseCase, "expected": keys}).Warn("result is missing expected keys")
	}

	id := uuid.New()
	if userID := strings.TrimSpace(c.GetHeader(headerUserID)); userID != "" && h.store != nil {
		rec, err := h.store.Insert(ctx, store.Record{
			ID:        id,
			UserID:    userID,
			UseCase:   res.UseCase,
			Language:  res.Language,
			Provider:  res.Provider,
			Model:     res.Model,
			InputType: inputType,
			Result:    res.Value,
		})
		if err != nil {
			log.WithError(err).WithField("use_case", res.UseCase).Error("store result")
		} else {
			id = rec.ID
		}
	}

	c.JSON(http.StatusOK, adviceResponse{
		ID:       id.String(),
		UseCase:  res.UseCase,
		Language: res.Language,
		Provider: res.Provider,
		Model:    res.Model,
		Result:   res.Value,
	})
}
