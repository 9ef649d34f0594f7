package util

import (
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
)

const (
	MIMEPDF         = "application/pdf"
	mimeOctetStream = "application/octet-stream"
)

// SniffMime detects JPEG/PNG/PDF by magic bytes and falls back to http.DetectContentType.
func SniffMime(b []byte) string {
	// JPEG: FF D8
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	// PNG
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	// PDF
	if len(b) >= 5 && b[0] == '%' && b[1] == 'P' && b[2] == 'D' && b[3] == 'F' && b[4] == '-' {
		return MIMEPDF
	}
	if len(b) == 0 {
		return mimeOctetStream
	}
	return http.DetectContentType(b)
}

// BaseMIME strips parameters and lower-cases: "Image/JPEG; q=1" -> "image/jpeg".
func BaseMIME(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(m); err == nil {
		return mt
	}
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

// PickMIME prefers the declared type, then a data:URI hint, and sniffs the
// bytes only when neither is given. A declared octet-stream stays as it is.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := BaseMIME(explicit); exp != "" {
		return exp
	}
	if h := BaseMIME(hint); h != "" {
		return h
	}
	return BaseMIME(SniffMime(data))
}

func IsImageMIME(m string) bool {
	return strings.HasPrefix(BaseMIME(m), "image/")
}

func IsPDFMIME(m string) bool {
	switch BaseMIME(m) {
	case MIMEPDF, "application/x-pdf":
		return true
	}
	return false
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// DecodeBase64MaybeDataURL decodes base64; for a data:URI it also returns the MIME prefix.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if strings.HasPrefix(s, "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	// standard first, then URL-safe
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hintMIME, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(s); err2 == nil {
		return b2, hintMIME, nil
	} else {
		return nil, "", err
	}
}

// Truncate cuts s to at most n bytes on a rune boundary and appends "…" when cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
