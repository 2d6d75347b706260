package openai

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/pkg/errors"
	goopenai "github.com/sashabaranov/go-openai"
)

// Voice is the speech handle of one AI session.
type Voice struct {
	client   *goopenai.Client
	cfg      config.AI
	language string

	mu     sync.Mutex
	closed bool
}

func (v *Voice) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if v.isClosed() {
		return nil, domain.ErrVoiceClosed
	}
	resp, err := v.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(v.cfg.TTSModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(v.cfg.Voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create speech")
	}
	return resp, nil
}

func (v *Voice) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	if v.isClosed() {
		return "", domain.ErrVoiceClosed
	}
	resp, err := v.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    v.cfg.STTModel,
		FilePath: "clip.webm",
		Reader:   audio,
		Language: isoLanguage(v.language),
	})
	if err != nil {
		return "", errors.Wrap(err, "create transcription")
	}
	return strings.TrimSpace(resp.Text), nil
}

func (v *Voice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *Voice) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// isoLanguage turns a locale like "en-US" into the ISO-639-1 code Whisper expects.
func isoLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}
