package core

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertConsistent(t *testing.T, tbl *RoomTable) {
	t.Helper()
	tbl.mu.RLock()
	defer tbl.mu.RUnlock()
	for room, members := range tbl.rooms {
		require.NotEmpty(t, members, "room %q left empty in table", room)
		for sid := range members {
			require.Equal(t, room, tbl.index[sid], "index of %q", sid)
		}
	}
	for sid, room := range tbl.index {
		_, ok := tbl.rooms[room][sid]
		require.True(t, ok, "%q indexed to %q but not a member", sid, room)
	}
}

func TestRoomTableJoinNotifiesExisting(t *testing.T) {
	tbl := NewRoomTable()

	res := tbl.Join("x", "r1")
	assert.Empty(t, res.Existing)
	assert.Nil(t, res.Previous)

	res = tbl.Join("y", "r1")
	assert.Equal(t, []SessionID{"x"}, res.Existing)
	assert.Equal(t, []SessionID{"x", "y"}, tbl.Members("r1"))
	assert.Equal(t, 1, tbl.Count())
	assertConsistent(t, tbl)
}

func TestRoomTableJoinSwitchesRoom(t *testing.T) {
	tbl := NewRoomTable()
	tbl.Join("x", "r1")
	tbl.Join("y", "r1")

	res := tbl.Join("x", "r2")
	require.NotNil(t, res.Previous)
	assert.Equal(t, domain.RoomID("r1"), res.Previous.Room)
	assert.Equal(t, []SessionID{"y"}, res.Previous.Remaining)
	assert.False(t, res.Previous.Emptied)

	room, ok := tbl.RoomOf("x")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r2"), room)
	assert.Equal(t, 2, tbl.Count())
	assertConsistent(t, tbl)
}

func TestRoomTableLeaveRemovesEmptyRoom(t *testing.T) {
	tbl := NewRoomTable()
	tbl.Join("x", "r1")

	res, ok := tbl.Leave("x")
	require.True(t, ok)
	assert.True(t, res.Emptied)
	assert.Empty(t, res.Remaining)
	assert.Equal(t, 0, tbl.Count())

	_, found := tbl.Get("r1")
	assert.False(t, found)

	_, ok = tbl.Leave("x")
	assert.False(t, ok, "second leave is a no-op")
	assertConsistent(t, tbl)
}

func TestRoomTableMembersExcept(t *testing.T) {
	tbl := NewRoomTable()
	assert.Empty(t, tbl.MembersExcept("x"))

	tbl.Join("x", "r1")
	assert.Empty(t, tbl.MembersExcept("x"))

	tbl.Join("y", "r1")
	tbl.Join("z", "r1")
	tbl.Join("w", "r2")
	assert.Equal(t, []SessionID{"y", "z"}, tbl.MembersExcept("x"))
}

func TestRoomTableRandomSequencesStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tbl := NewRoomTable()
	want := map[SessionID]domain.RoomID{}

	for i := 0; i < 2000; i++ {
		sid := SessionID(fmt.Sprintf("c%d", rng.Intn(12)))
		if rng.Intn(3) == 0 {
			_, ok := tbl.Leave(sid)
			_, had := want[sid]
			require.Equal(t, had, ok)
			delete(want, sid)
		} else {
			room := domain.RoomID(fmt.Sprintf("r%d", rng.Intn(4)))
			tbl.Join(sid, room)
			want[sid] = room
		}
		assertConsistent(t, tbl)

		sizes := map[domain.RoomID]int{}
		for _, room := range want {
			sizes[room]++
		}
		require.Equal(t, len(sizes), tbl.Count())
		for room, n := range sizes {
			info, ok := tbl.Get(room)
			require.True(t, ok)
			require.Equal(t, n, info.MemberCount)
		}
	}
}

func TestRoomTableList(t *testing.T) {
	tbl := NewRoomTable()
	tbl.Join("a", "beta")
	tbl.Join("b", "alpha")
	tbl.Join("c", "alpha")

	assert.Equal(t, []RoomInfo{
		{ID: "alpha", MemberCount: 2},
		{ID: "beta", MemberCount: 1},
	}, tbl.List())
}
