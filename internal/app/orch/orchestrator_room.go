package orch

import (
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join puts sid into room. Members already there get a `join` notice, so one
// of them knows to start the offer.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomID) {
	res := o.Rooms.Join(sid, room)
	if res.Previous != nil {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(res.Previous.Room)).Msg("left previous room")
		o.afterLeave(sid, *res.Previous)
	}
	if frame, ok := encode(domain.JoinNotice(room)); ok {
		o.fanOut(res.Existing, frame)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("existing", len(res.Existing)).Msg("joined room")
}

// Leave takes sid out of its room. No-op when sid is in no room.
func (o *Orchestrator) Leave(sid core.SessionID) {
	res, ok := o.Rooms.Leave(sid)
	if !ok {
		return
	}
	o.afterLeave(sid, res)
}

func (o *Orchestrator) afterLeave(sid core.SessionID, res core.LeaveResult) {
	if frame, ok := encode(domain.LeaveNotice(res.Room)); ok {
		o.fanOut(res.Remaining, frame)
	}
	if o.AI == nil {
		return
	}
	if res.Emptied {
		o.AI.Teardown(res.Room)
		return
	}
	// A bot whose target left goes with it.
	if target, ok := o.AI.Target(res.Room); ok && target == sid {
		o.AI.Teardown(res.Room)
	}
}

// OnDisconnect runs leave cleanup for a closed connection. Idempotent.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	if o.AI != nil {
		o.AI.ReleaseTarget(sid)
	}
	if o.Registry.Unbind(sid) {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
	}
}

// Kick closes the connection of sid; its read loop then runs OnDisconnect.
func (o *Orchestrator) Kick(sid core.SessionID) {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicking member")
	o.Registry.Cancel(sid)
	sess.Signal().Close()
}

// RoomView is the read-only room listing served over HTTP.
type RoomView struct {
	core.RoomInfo
	AIMode bool `json:"ai_mode"`
}

func (o *Orchestrator) RoomViews() []RoomView {
	rooms := o.Rooms.List()
	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomView{RoomInfo: r, AIMode: o.AI != nil && o.AI.Active(r.ID)})
	}
	return out
}

func (o *Orchestrator) RoomView(room domain.RoomID) (RoomView, bool) {
	info, ok := o.Rooms.Get(room)
	if !ok {
		return RoomView{}, false
	}
	return RoomView{RoomInfo: info, AIMode: o.AI != nil && o.AI.Active(room)}, true
}
