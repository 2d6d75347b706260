package orch

import (
	"errors"
	"strings"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) EnableAI(sid core.SessionID, room domain.RoomID, language string) {
	if o.AI == nil {
		o.SendTo(sid, domain.ErrorMessage(domain.MsgNotConfigured))
		return
	}
	if err := o.AI.Enable(sid, room, language); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("ai mode not enabled")
	}
}

// SubmitText routes an ai-text message. A message without roomId goes to the
// sender's current room.
func (o *Orchestrator) SubmitText(sid core.SessionID, msg domain.Message) {
	room := msg.RoomID
	if room == "" {
		current, ok := o.Rooms.RoomOf(sid)
		if !ok {
			o.dropMissingRoom(sid, msg.Type)
			return
		}
		room = current
	}
	if strings.TrimSpace(msg.Text) == "" {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("dropping empty ai-text")
		return
	}
	if o.AI == nil {
		o.SendTo(sid, domain.ErrorMessage(domain.MsgBotNotInitialized))
		return
	}
	if err := o.AI.SubmitText(sid, room, msg.Text); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("ai-text rejected")
	}
}

// HandleAudio processes one inbound binary frame: a recorded clip for the bot
// of the sender's room, or of the room whose bot talks to the sender.
func (o *Orchestrator) HandleAudio(sid core.SessionID, audio core.Frame) {
	if o.AI == nil {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("audio without ai support dropped")
		return
	}
	room, ok := o.Rooms.RoomOf(sid)
	if !ok || !o.AI.Active(room) {
		room, ok = o.AI.RoomOfTarget(sid)
	}
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Int("bytes", len(audio)).Msg("audio outside ai mode dropped")
		return
	}
	err := o.AI.SubmitAudio(sid, room, audio)
	switch {
	case errors.Is(err, domain.ErrAudioTooLarge):
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Int("bytes", len(audio)).Msg("audio dropped")
	case err != nil:
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("audio rejected")
	}
}
