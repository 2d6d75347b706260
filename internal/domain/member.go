package domain

import "time"

// Member is the participation meta of one signaling connection.
// No transport or lifecycle logic here.
type Member struct {
	ClientToken string
	ConnectedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(clientToken string) *Member {
	return &Member{ClientToken: clientToken, ConnectedAt: time.Now()}
}
