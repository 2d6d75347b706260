package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State int32

const (
	StateIdle State = iota
	StateAwaitingCompletion
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateSpeaking:
		return "speaking"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Output is where a bot delivers what it produces.
type Output interface {
	Send(msg domain.Message)
	SendAudio(audio []byte)
}

type BotConfig struct {
	SystemPrompt   string
	Language       string
	RequestTimeout time.Duration
	MaxAudioBytes  int64
}

func (c BotConfig) withDefaults() BotConfig {
	if c.SystemPrompt == "" {
		c.SystemPrompt = domain.DefaultSystemPrompt
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxAudioBytes <= 0 {
		c.MaxAudioBytes = 4 << 20
	}
	return c
}

// Bot is the conversational state of one room in AI mode.
//
// Turns run on their own goroutine and are serialized by the state machine:
// Idle -> AwaitingCompletion -> Speaking -> Idle. A submission that arrives
// while a turn is in flight is parked in a single pending slot (newest wins)
// and starts as soon as the current turn ends.
type Bot struct {
	ctx       context.Context
	room      domain.RoomID
	language  string
	assistant core.Assistant
	voice     core.Voice
	out       Output
	cfg       BotConfig
	logger    zerolog.Logger

	mu      sync.Mutex
	state   State
	history []domain.ChatEntry
	pending *string
	closed  bool
	turns   sync.WaitGroup
}

func NewBot(ctx context.Context, room domain.RoomID, language string, assistant core.Assistant, voice core.Voice, out Output, cfg BotConfig) *Bot {
	cfg = cfg.withDefaults()
	if language == "" {
		language = cfg.Language
	}
	return &Bot{
		ctx:       ctx,
		room:      room,
		language:  language,
		assistant: assistant,
		voice:     voice,
		out:       out,
		cfg:       cfg,
		logger:    log.With().Str("module", "ai.bot").Str("room", string(room)).Logger(),
		history:   []domain.ChatEntry{{Role: domain.RoleSystem, Text: cfg.SystemPrompt}},
	}
}

func (b *Bot) Language() string { return b.language }

func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// History returns a copy of the conversation, system instruction first.
func (b *Bot) History() []domain.ChatEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ChatEntry, len(b.history))
	copy(out, b.history)
	return out
}

// Submit starts a turn for text, or parks it when a turn is already running.
// It never blocks on the external capability.
func (b *Bot) Submit(text string) (queued bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if b.state != StateIdle {
		if b.pending != nil {
			b.logger.Warn().Str("dropped", *b.pending).Msg("pending submission replaced")
		}
		b.pending = &text
		b.logger.Debug().Str("state", b.state.String()).Msg("submission queued")
		return true
	}
	b.beginTurnLocked(text)
	b.turns.Add(1)
	go b.run(text)
	return false
}

func (b *Bot) beginTurnLocked(text string) {
	b.history = append(b.history, domain.ChatEntry{Role: domain.RoleUser, Text: text})
	b.state = StateAwaitingCompletion
}

func (b *Bot) run(text string) {
	defer b.turns.Done()
	for {
		b.turn()

		b.mu.Lock()
		if b.pending == nil || b.closed {
			b.pending = nil
			b.state = StateIdle
			b.mu.Unlock()
			return
		}
		text = *b.pending
		b.pending = nil
		b.beginTurnLocked(text)
		b.mu.Unlock()
	}
}

func (b *Bot) turn() {
	history := b.History()
	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, err := b.assistant.Complete(ctx, history)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = domain.ErrEmptyCompletion
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("completion failed")
		b.send(domain.ErrorMessage(domain.MsgRequestFailed))
		return
	}
	b.logger.Info().Dur("took", time.Since(start)).Int("history", len(history)+1).Msg("completion done")

	b.mu.Lock()
	b.history = append(b.history, domain.ChatEntry{Role: domain.RoleAssistant, Text: reply})
	b.state = StateSpeaking
	b.mu.Unlock()

	b.send(domain.AIResponse(reply))
	b.speak(ctx, reply)
}

func (b *Bot) speak(ctx context.Context, text string) {
	audio, err := b.voice.Synthesize(ctx, text)
	if err != nil {
		b.logger.Error().Err(err).Msg("synthesis failed")
		b.send(domain.ErrorMessage(domain.MsgSpeechFailed))
		return
	}
	defer audio.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(audio, b.cfg.MaxAudioBytes+1))
	if err != nil {
		b.logger.Error().Err(err).Msg("reading synthesized audio")
		b.send(domain.ErrorMessage(domain.MsgSpeechFailed))
		return
	}
	if n > b.cfg.MaxAudioBytes {
		b.logger.Warn().Int64("limit", b.cfg.MaxAudioBytes).Msg("synthesized audio too large, not delivered")
		return
	}
	if n == 0 {
		return
	}
	b.sendAudio(buf.Bytes())
}

// Hear transcribes a client audio clip and feeds the text in as a turn.
func (b *Bot) Hear(audio []byte) {
	if int64(len(audio)) > b.cfg.MaxAudioBytes {
		b.logger.Warn().Int("bytes", len(audio)).Msg("audio clip too large, dropped")
		return
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	b.turns.Add(1)
	go func() {
		defer b.turns.Done()
		b.send(domain.StatusMessage(domain.StatusProcessing))

		ctx, cancel := context.WithTimeout(b.ctx, b.cfg.RequestTimeout)
		defer cancel()
		text, err := b.voice.Recognize(ctx, bytes.NewReader(audio))
		if err != nil {
			b.logger.Error().Err(err).Msg("recognition failed")
			b.send(domain.ErrorMessage(domain.MsgAudioFailed))
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			b.logger.Debug().Msg("recognized nothing")
			return
		}
		b.send(domain.UserSpeech(text))
		b.Submit(text)
	}()
}

func (b *Bot) send(msg domain.Message) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	b.out.Send(msg)
}

func (b *Bot) sendAudio(audio []byte) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	b.out.SendAudio(audio)
}

// Close releases the voice handle. In-flight calls are left to finish; their
// output is discarded. Safe to call more than once.
func (b *Bot) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.pending = nil
	b.mu.Unlock()

	if err := b.voice.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("voice close")
	}
	b.logger.Info().Msg("bot stopped")
}

// Wait blocks until no turn or recognition goroutine is running.
func (b *Bot) Wait() {
	b.turns.Wait()
}
