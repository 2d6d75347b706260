package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

var errService = errors.New("service unavailable")

type fakeAssistant struct {
	configured bool
	voiceErr   error
	complete   func(ctx context.Context, history []domain.ChatEntry) (string, error)
	synthesize func(ctx context.Context, text string) (io.ReadCloser, error)
	recognize  func(ctx context.Context, audio io.Reader) (string, error)

	mu     sync.Mutex
	calls  [][]domain.ChatEntry
	voices []*fakeVoice
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{
		configured: true,
		complete: func(_ context.Context, history []domain.ChatEntry) (string, error) {
			return "re: " + history[len(history)-1].Text, nil
		},
	}
}

func (a *fakeAssistant) Configured() bool { return a.configured }

func (a *fakeAssistant) Complete(ctx context.Context, history []domain.ChatEntry) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, history)
	a.mu.Unlock()
	return a.complete(ctx, history)
}

func (a *fakeAssistant) NewVoice(language string) (core.Voice, error) {
	if a.voiceErr != nil {
		return nil, a.voiceErr
	}
	v := &fakeVoice{owner: a, language: language}
	a.mu.Lock()
	a.voices = append(a.voices, v)
	a.mu.Unlock()
	return v, nil
}

func (a *fakeAssistant) ClientParams(language string) domain.SpeechParams {
	return domain.SpeechParams{Provider: "fake", Language: language, ServerRecognition: true}
}

func (a *fakeAssistant) Calls() [][]domain.ChatEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]domain.ChatEntry(nil), a.calls...)
}

func (a *fakeAssistant) Voices() []*fakeVoice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*fakeVoice(nil), a.voices...)
}

type fakeVoice struct {
	owner    *fakeAssistant
	language string

	mu     sync.Mutex
	closed bool
}

func (v *fakeVoice) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if v.owner.synthesize != nil {
		return v.owner.synthesize(ctx, text)
	}
	return io.NopCloser(strings.NewReader("audio:" + text)), nil
}

func (v *fakeVoice) Recognize(ctx context.Context, audio io.Reader) (string, error) {
	if v.owner.recognize != nil {
		return v.owner.recognize(ctx, audio)
	}
	b, err := io.ReadAll(audio)
	return string(b), err
}

func (v *fakeVoice) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *fakeVoice) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

type recordingOutbox struct {
	mu    sync.Mutex
	msgs  map[core.SessionID][]domain.Message
	audio map[core.SessionID][][]byte
}

func newRecordingOutbox() *recordingOutbox {
	return &recordingOutbox{
		msgs:  make(map[core.SessionID][]domain.Message),
		audio: make(map[core.SessionID][][]byte),
	}
}

func (o *recordingOutbox) SendTo(sid core.SessionID, msg domain.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs[sid] = append(o.msgs[sid], msg)
}

func (o *recordingOutbox) SendAudioTo(sid core.SessionID, audio []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio[sid] = append(o.audio[sid], audio)
}

func (o *recordingOutbox) Messages(sid core.SessionID) []domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Message(nil), o.msgs[sid]...)
}

func (o *recordingOutbox) Audio(sid core.SessionID) [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][]byte(nil), o.audio[sid]...)
}

func (o *recordingOutbox) OfKind(sid core.SessionID, kind domain.Kind) []domain.Message {
	var out []domain.Message
	for _, m := range o.Messages(sid) {
		if m.Type == kind {
			out = append(out, m)
		}
	}
	return out
}
