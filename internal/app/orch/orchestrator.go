package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/app/ai"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the relay dispatcher: it classifies inbound frames, keeps
// room membership and routes AI traffic. Every send is fire-and-forget.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomTable
	Policy   app.Policy
	AI       *ai.Supervisor
}

// Handle processes one inbound text frame of sid.
func (o *Orchestrator) Handle(sid core.SessionID, data core.Frame) {
	msg, err := domain.ParseMessage(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Int("bytes", len(data)).Msg("dropping unparseable message")
		return
	}

	if msg.Type.Relayed() {
		o.Relay(sid, data)
		return
	}

	switch msg.Type {
	case domain.KindJoin:
		if msg.RoomID == "" {
			o.dropMissingRoom(sid, msg.Type)
			return
		}
		o.Join(sid, msg.RoomID)
	case domain.KindLeave:
		o.Leave(sid)
	case domain.KindAIMode:
		if msg.RoomID == "" {
			o.dropMissingRoom(sid, msg.Type)
			return
		}
		if !msg.AIMode {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("ai-mode without aiMode flag ignored")
			return
		}
		o.EnableAI(sid, msg.RoomID, msg.Language)
	case domain.KindAIText:
		o.SubmitText(sid, msg)
	default:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("type", string(msg.Type)).Msg("unknown signal")
	}
}

// Relay forwards data verbatim to every other member of sid's room.
func (o *Orchestrator) Relay(sid core.SessionID, data core.Frame) {
	others := o.Rooms.MembersExcept(sid)
	if len(others) == 0 {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("relay: nobody to relay to")
		return
	}
	sent := o.fanOut(others, data)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Int("sent_to", sent).Int("dropped", len(others)-sent).Msg("relay result")
}

// SendTo implements ai.Outbox.
func (o *Orchestrator) SendTo(sid core.SessionID, msg domain.Message) {
	frame, ok := encode(msg)
	if !ok {
		return
	}
	o.deliver(sid, frame, false)
}

// SendAudioTo implements ai.Outbox.
func (o *Orchestrator) SendAudioTo(sid core.SessionID, audio []byte) {
	o.deliver(sid, core.Frame(audio), true)
}

func (o *Orchestrator) fanOut(sids []core.SessionID, frame core.Frame) int {
	sent := 0
	for _, sid := range sids {
		if o.deliver(sid, frame, false) {
			sent++
		}
	}
	return sent
}

// deliver never blocks. A connection that is already gone is skipped silently.
func (o *Orchestrator) deliver(sid core.SessionID, frame core.Frame, binary bool) bool {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		return false
	}
	var err error
	if binary {
		err = sess.Signal().TrySendAudio(frame)
	} else {
		err = sess.Signal().TrySend(frame)
	}
	if err == nil {
		return true
	}
	if errors.Is(err, core.ErrClosed) {
		return false
	}

	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("send failed")
	if o.Policy == nil {
		return false
	}
	switch o.Policy.OnBackPressure(sess) {
	case app.KickMember:
		o.Kick(sid)
	case app.NoAction:
	}
	return false
}

func (o *Orchestrator) dropMissingRoom(sid core.SessionID, kind domain.Kind) {
	log.Warn().Err(domain.ErrMissingRoom).Str("module", "orch").Str("sid", string(sid)).Str("type", string(kind)).Msg("dropping message")
}

func encode(msg domain.Message) (core.Frame, bool) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(msg.Type)).Msg("encode message")
		return nil, false
	}
	return b, true
}
