package domain

// RoomID is the opaque key clients use to meet each other. Rooms exist only
// while they have members.
type RoomID string
