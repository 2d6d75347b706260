package core

import "github.com/dkeye/VoiceRelay/internal/domain"

type SessionID string

// MemberSession binds domain.Member and its transport endpoint.
// This is what the registry stores and the dispatcher fans out to.
type MemberSession interface {
	ID() SessionID
	Meta() *domain.Member
	Signal() SignalConnection
}
