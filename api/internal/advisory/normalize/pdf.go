package normalize

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader reads text rows page by page; each row is one fragment.
type PDFReader struct{}

func (PDFReader) Pages(ctx context.Context, data []byte) (pages []Page, err error) {
	// the pdf package panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf: open: %w", err)
	}
	n := r.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{})
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("pdf: page %d: %w", i, err)
		}
		var frags []string
		for _, row := range rows {
			var sb strings.Builder
			for _, t := range row.Content {
				sb.WriteString(t.S)
			}
			if s := strings.TrimSpace(sb.String()); s != "" {
				frags = append(frags, s)
			}
		}
		pages = append(pages, Page{Fragments: frags})
	}
	return pages, nil
}
