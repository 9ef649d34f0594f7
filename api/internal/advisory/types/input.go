package types

import (
	"encoding/base64"
	"errors"
	"strings"
)

// InputKind tags the populated variant of a ModelInput.
type InputKind string

const (
	KindText  InputKind = "text"
	KindImage InputKind = "image"
)

// ModelInput is the canonical payload handed to the prompt builder.
// Exactly one variant is populated: Content for text, MIMEType+Base64 for image.
type ModelInput struct {
	Kind     InputKind `json:"kind"`
	Content  string    `json:"content,omitempty"`
	MIMEType string    `json:"mime_type,omitempty"`
	Base64   string    `json:"base64,omitempty"`
}

func TextInput(s string) ModelInput {
	return ModelInput{Kind: KindText, Content: s}
}

// ImageInput encodes the whole byte slice; mime is passed through unchanged.
func ImageInput(mime string, data []byte) ModelInput {
	return ModelInput{
		Kind:     KindImage,
		MIMEType: mime,
		Base64:   base64.StdEncoding.EncodeToString(data),
	}
}

func (in ModelInput) IsImage() bool { return in.Kind == KindImage }

// Bytes decodes the image payload.
func (in ModelInput) Bytes() ([]byte, error) {
	if in.Kind != KindImage {
		return nil, errors.New("model input is not an image")
	}
	return base64.StdEncoding.DecodeString(in.Base64)
}

func (in ModelInput) Validate() error {
	switch in.Kind {
	case KindText:
		if in.MIMEType != "" || in.Base64 != "" {
			return errors.New("text input carries image fields")
		}
		return nil
	case KindImage:
		if in.Content != "" {
			return errors.New("image input carries text content")
		}
		if strings.TrimSpace(in.MIMEType) == "" {
			return errors.New("image input without mime type")
		}
		if _, err := base64.StdEncoding.DecodeString(in.Base64); err != nil {
			return errors.New("image input is not valid base64")
		}
		return nil
	default:
		return errors.New("unknown model input kind")
	}
}

// Artifact is a raw upload as declared by the caller.
type Artifact struct {
	Data      []byte
	MediaType string
	FileName  string
}
