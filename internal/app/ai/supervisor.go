package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Outbox delivers to a connection by session id. Delivery to a connection
// that is gone must be a silent no-op.
type Outbox interface {
	SendTo(sid core.SessionID, msg domain.Message)
	SendAudioTo(sid core.SessionID, audio []byte)
}

type targetOutput struct {
	outbox Outbox
	sid    core.SessionID
}

func (o targetOutput) Send(msg domain.Message) { o.outbox.SendTo(o.sid, msg) }
func (o targetOutput) SendAudio(audio []byte)  { o.outbox.SendAudioTo(o.sid, audio) }

type session struct {
	bot    *Bot
	target core.SessionID
}

// Supervisor owns at most one Bot per room.
type Supervisor struct {
	ctx       context.Context
	assistant core.Assistant
	outbox    Outbox
	cfg       BotConfig

	mu       sync.Mutex
	sessions map[domain.RoomID]*session
}

func NewSupervisor(ctx context.Context, assistant core.Assistant, outbox Outbox, cfg BotConfig) *Supervisor {
	return &Supervisor{
		ctx:       ctx,
		assistant: assistant,
		outbox:    outbox,
		cfg:       cfg.withDefaults(),
		sessions:  make(map[domain.RoomID]*session),
	}
}

// Enable starts a fresh bot for room, replacing any previous one, and tells
// sid how to set up its speech side.
func (s *Supervisor) Enable(sid core.SessionID, room domain.RoomID, language string) error {
	if s.assistant == nil || !s.assistant.Configured() {
		log.Warn().Str("module", "ai.supervisor").Str("sid", string(sid)).Str("room", string(room)).Msg("ai mode requested but not configured")
		s.outbox.SendTo(sid, domain.ErrorMessage(domain.MsgNotConfigured))
		return domain.ErrNotConfigured
	}
	if language == "" {
		language = s.cfg.Language
	}

	voice, err := s.assistant.NewVoice(language)
	if err != nil {
		log.Error().Err(err).Str("module", "ai.supervisor").Str("room", string(room)).Msg("open voice")
		s.outbox.SendTo(sid, domain.ErrorMessage(domain.MsgStartFailed))
		return fmt.Errorf("open voice: %w", err)
	}

	bot := NewBot(s.ctx, room, language, s.assistant, voice, targetOutput{outbox: s.outbox, sid: sid}, s.cfg)

	s.mu.Lock()
	old := s.sessions[room]
	s.sessions[room] = &session{bot: bot, target: sid}
	s.mu.Unlock()

	if old != nil {
		log.Info().Str("module", "ai.supervisor").Str("room", string(room)).Msg("replacing ai session")
		old.bot.Close()
	}

	s.outbox.SendTo(sid, domain.StatusMessage(domain.StatusReady))
	s.outbox.SendTo(sid, domain.AIModeActive(room, s.assistant.ClientParams(language)))
	log.Info().Str("module", "ai.supervisor").Str("sid", string(sid)).Str("room", string(room)).Str("language", language).Msg("ai mode activated")
	return nil
}

// SubmitText hands text to the room's bot. Without a bot the requester gets an error.
func (s *Supervisor) SubmitText(sid core.SessionID, room domain.RoomID, text string) error {
	bot, ok := s.Bot(room)
	if !ok {
		s.outbox.SendTo(sid, domain.ErrorMessage(domain.MsgBotNotInitialized))
		return domain.ErrBotNotInitialized
	}
	bot.Submit(text)
	return nil
}

// SubmitAudio hands a recorded clip to the room's bot for recognition.
func (s *Supervisor) SubmitAudio(sid core.SessionID, room domain.RoomID, audio []byte) error {
	bot, ok := s.Bot(room)
	if !ok {
		s.outbox.SendTo(sid, domain.ErrorMessage(domain.MsgBotNotInitialized))
		return domain.ErrBotNotInitialized
	}
	if int64(len(audio)) > s.cfg.MaxAudioBytes {
		return domain.ErrAudioTooLarge
	}
	bot.Hear(audio)
	return nil
}

// Teardown stops and forgets the bot of room. Idempotent.
func (s *Supervisor) Teardown(room domain.RoomID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[room]
	delete(s.sessions, room)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.bot.Close()
	log.Info().Str("module", "ai.supervisor").Str("room", string(room)).Msg("ai session torn down")
	return true
}

// ReleaseTarget tears down every bot that delivers to sid.
func (s *Supervisor) ReleaseTarget(sid core.SessionID) []domain.RoomID {
	var rooms []domain.RoomID
	s.mu.Lock()
	for room, sess := range s.sessions {
		if sess.target == sid {
			rooms = append(rooms, room)
		}
	}
	s.mu.Unlock()
	for _, room := range rooms {
		s.Teardown(room)
	}
	return rooms
}

func (s *Supervisor) Bot(room domain.RoomID) (*Bot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[room]
	if !ok {
		return nil, false
	}
	return sess.bot, true
}

// Target returns the connection a room's bot delivers to.
func (s *Supervisor) Target(room domain.RoomID) (core.SessionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[room]
	if !ok {
		return "", false
	}
	return sess.target, true
}

// RoomOfTarget finds the room whose bot delivers to sid.
func (s *Supervisor) RoomOfTarget(sid core.SessionID) (domain.RoomID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for room, sess := range s.sessions {
		if sess.target == sid {
			return room, true
		}
	}
	return "", false
}

func (s *Supervisor) Active(room domain.RoomID) bool {
	_, ok := s.Bot(room)
	return ok
}

func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close tears down every session; used on shutdown.
func (s *Supervisor) Close() {
	s.mu.Lock()
	rooms := make([]domain.RoomID, 0, len(s.sessions))
	for room := range s.sessions {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()
	for _, room := range rooms {
		s.Teardown(room)
	}
}
