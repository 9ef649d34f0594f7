package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffMime(t *testing.T) {
	assert.Equal(t, "image/jpeg", SniffMime([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "image/png", SniffMime([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0}))
	assert.Equal(t, MIMEPDF, SniffMime([]byte("%PDF-1.7\n")))
	assert.Equal(t, "application/octet-stream", SniffMime(nil))
	assert.Equal(t, "image/gif", SniffMime([]byte("GIF89a......")))
}

func TestPickMIME(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF}
	assert.Equal(t, "image/webp", PickMIME("image/webp", "image/png", jpeg))
	assert.Equal(t, "image/png", PickMIME("", "image/png", jpeg))
	assert.Equal(t, "application/octet-stream", PickMIME("application/octet-stream", "", jpeg))
	assert.Equal(t, "image/jpeg", PickMIME("", "", jpeg))
	assert.Equal(t, "image/jpeg", PickMIME(" Image/JPEG; charset=binary ", "", nil))
}

func TestIsImageAndPDF(t *testing.T) {
	assert.True(t, IsImageMIME("image/bmp"))
	assert.False(t, IsImageMIME("application/pdf"))
	assert.True(t, IsPDFMIME("application/pdf"))
	assert.True(t, IsPDFMIME("APPLICATION/X-PDF"))
	assert.False(t, IsPDFMIME("text/plain"))
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0x01, 0xFE}
	b64 := base64.StdEncoding.EncodeToString(raw)

	got, mime, err := DecodeBase64MaybeDataURL(MakeDataURL("image/jpeg", b64))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, "image/jpeg", mime)

	got, mime, err = DecodeBase64MaybeDataURL("  " + b64 + "\n")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Empty(t, mime)

	_, _, err = DecodeBase64MaybeDataURL("not base64 !!")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	// "हि" is 6 bytes; cutting at 4 must not split a rune
	assert.Equal(t, "ह…", Truncate("हि", 4))
}
