package core

import (
	"sort"
	"sync"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomTable is a threadsafe in-memory room table together with its inverse
// membership index. Both maps change under the same lock, so a member is in
// room R's set iff the index maps it to R, and empty rooms are never visible.
// It never touches transport resources.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[SessionID]struct{}
	index map[SessionID]domain.RoomID
}

func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms: make(map[domain.RoomID]map[SessionID]struct{}),
		index: make(map[SessionID]domain.RoomID),
	}
}

// Join moves sid into room. A member of another room (or of the same one) leaves
// it first. Existing lists the members present before sid was added.
func (t *RoomTable) Join(sid SessionID, room domain.RoomID) JoinResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := JoinResult{Room: room}
	if _, ok := t.index[sid]; ok {
		prev := t.leaveLocked(sid)
		res.Previous = &prev
	}

	members, ok := t.rooms[room]
	if !ok {
		members = make(map[SessionID]struct{})
		t.rooms[room] = members
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("room created")
	}
	res.Existing = sortedIDs(members, "")
	members[sid] = struct{}{}
	t.index[sid] = room

	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("room", string(room)).Int("size", len(members)).Msg("member added")
	return res
}

// Leave removes sid from its room. ok is false when sid was in no room.
func (t *RoomTable) Leave(sid SessionID) (LeaveResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.index[sid]; !ok {
		return LeaveResult{}, false
	}
	return t.leaveLocked(sid), true
}

func (t *RoomTable) leaveLocked(sid SessionID) LeaveResult {
	room := t.index[sid]
	delete(t.index, sid)

	res := LeaveResult{Room: room}
	members := t.rooms[room]
	delete(members, sid)
	if len(members) == 0 {
		delete(t.rooms, room)
		res.Emptied = true
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("room removed")
	} else {
		res.Remaining = sortedIDs(members, "")
	}
	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("room", string(room)).Int("size", len(members)).Msg("member removed")
	return res
}

// RoomOf returns the room sid currently belongs to.
func (t *RoomTable) RoomOf(sid SessionID) (domain.RoomID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.index[sid]
	return room, ok
}

// MembersExcept returns the other members of sid's room.
func (t *RoomTable) MembersExcept(sid SessionID) []SessionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.index[sid]
	if !ok {
		return nil
	}
	return sortedIDs(t.rooms[room], sid)
}

func (t *RoomTable) Members(room domain.RoomID) []SessionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedIDs(t.rooms[room], "")
}

func (t *RoomTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

func (t *RoomTable) Get(room domain.RoomID) (RoomInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members, ok := t.rooms[room]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{ID: room, MemberCount: len(members)}, true
}

func (t *RoomTable) List() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomInfo, 0, len(t.rooms))
	for id, members := range t.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedIDs(set map[SessionID]struct{}, skip SessionID) []SessionID {
	out := make([]SessionID, 0, len(set))
	for sid := range set {
		if sid == skip {
			continue
		}
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
