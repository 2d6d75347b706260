package core

import "github.com/dkeye/VoiceRelay/internal/domain"

type RoomInfo struct {
	ID          domain.RoomID `json:"name"`
	MemberCount int           `json:"member_count"`
}

// LeaveResult describes what a leave did to the room the member was in.
type LeaveResult struct {
	Room      domain.RoomID
	Remaining []SessionID
	// Emptied is set when the leave removed the room from the table.
	Emptied bool
}

// JoinResult describes a join. Previous is set when the join switched rooms.
type JoinResult struct {
	Room     domain.RoomID
	Existing []SessionID
	Previous *LeaveResult
}
