package types

// PromptEnvelope is the rendered instruction plus an optional image attachment.
// It is immutable once built.
type PromptEnvelope struct {
	useCase UseCase
	text    string
	image   *ModelInput
}

// NewEnvelope copies the image so later changes by the caller cannot leak in.
func NewEnvelope(u UseCase, text string, image *ModelInput) PromptEnvelope {
	env := PromptEnvelope{useCase: u, text: text}
	if image != nil {
		img := *image
		env.image = &img
	}
	return env
}

func (e PromptEnvelope) UseCase() UseCase { return e.useCase }
func (e PromptEnvelope) Text() string     { return e.text }

// Image returns a copy of the attachment, if any.
func (e PromptEnvelope) Image() (ModelInput, bool) {
	if e.image == nil {
		return ModelInput{}, false
	}
	return *e.image, true
}

// RawModelResponse is the unmodified model output. OK is false when the
// endpoint was unreachable or returned an error status.
type RawModelResponse struct {
	Text       string
	OK         bool
	StatusCode int
	Model      string
}
