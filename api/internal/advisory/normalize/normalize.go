// Package normalize turns raw uploads and structured params into a ModelInput.
package normalize

import (
	"context"
	"encoding/json"
	"strings"

	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/util"
)

// Page holds the text fragments of one document page in extraction order.
type Page struct {
	Fragments []string
}

// DocumentReader extracts pages from a document in reading order.
type DocumentReader interface {
	Pages(ctx context.Context, data []byte) ([]Page, error)
}

type Normalizer struct {
	Docs DocumentReader
}

// New returns a Normalizer backed by the PDF reader.
func New() *Normalizer {
	return &Normalizer{Docs: PDFReader{}}
}

// Normalize converts an uploaded artifact. PDFs become text, images become
// base64; any other declared type, octet-stream included, is an unsupported
// input. The bytes are sniffed only when no type is declared.
func (n *Normalizer) Normalize(ctx context.Context, a types.Artifact) (types.ModelInput, error) {
	mime := util.PickMIME(a.MediaType, "", a.Data)
	switch {
	case util.IsPDFMIME(mime):
		if len(a.Data) == 0 {
			return types.ModelInput{}, types.NewError(types.KindUnsupportedInput, "empty document")
		}
		pages, err := n.Docs.Pages(ctx, a.Data)
		if err != nil {
			return types.ModelInput{}, types.Wrap(types.KindUnsupportedInput, err, "document could not be read")
		}
		return types.TextInput(JoinPages(pages)), nil
	case util.IsImageMIME(mime):
		if len(a.Data) == 0 {
			return types.ModelInput{}, types.NewError(types.KindUnsupportedInput, "empty image")
		}
		// declared type goes through as given, only sniffed when undeclared
		declared := strings.TrimSpace(a.MediaType)
		if declared == "" {
			declared = mime
		}
		return types.ImageInput(declared, a.Data), nil
	default:
		return types.ModelInput{}, types.NewError(types.KindUnsupportedInput, "unsupported media type %q", a.MediaType)
	}
}

// JoinPages renders pages in order: fragments joined by a space, every page
// followed by a newline.
func JoinPages(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(strings.Join(p.Fragments, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// NormalizeParams serializes the structured input of a use case to JSON text.
func NormalizeParams(u types.UseCase, p types.Params) (types.ModelInput, error) {
	var v any
	switch u {
	case types.FertilizerPlan:
		v = struct {
			Crop  string `json:"crop"`
			Stage string `json:"stage"`
		}{p.Crop, p.Stage}
	case types.WeatherAdvisory, types.WeatherForecast:
		v = struct {
			Lat  *float64 `json:"lat"`
			Lon  *float64 `json:"lon"`
			Crop string   `json:"crop,omitempty"`
		}{p.Lat, p.Lon, p.Crop}
	case types.MarketPrices:
		v = struct {
			Lat  *float64 `json:"lat"`
			Lon  *float64 `json:"lon"`
			Date string   `json:"date,omitempty"`
			Crop string   `json:"crop,omitempty"`
		}{p.Lat, p.Lon, p.Date, p.Crop}
	case types.ProjectPlan:
		v = p.Report
	default:
		return types.ModelInput{}, types.NewError(types.KindInvalidRequest, "use case %q takes an uploaded file", u)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return types.ModelInput{}, types.Wrap(types.KindInvalidRequest, err, "params are not serializable")
	}
	return types.TextInput(string(b)), nil
}
