package domain

import "encoding/json"

// Kind is the `type` discriminator of a control message.
type Kind string

const (
	KindJoin         Kind = "join"
	KindLeave        Kind = "leave"
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindICECandidate Kind = "ice-candidate"
	KindAIMode       Kind = "ai-mode"
	KindAIText       Kind = "ai-text"
	KindAIModeActive Kind = "ai-mode-active"
	KindUserSpeech   Kind = "user-speech"
	KindAIResponse   Kind = "ai-response"
	KindStatus       Kind = "status"
	KindError        Kind = "error"
)

// Relayed reports whether messages of this kind are forwarded verbatim to room mates.
func (k Kind) Relayed() bool {
	switch k {
	case KindOffer, KindAnswer, KindICECandidate:
		return true
	}
	return false
}

const (
	StatusReady      = "ready"
	StatusProcessing = "processing"
)

// Message is the wire form of every control message. WebRTC payloads stay raw,
// the relay never looks inside them.
type Message struct {
	Type   Kind   `json:"type"`
	RoomID RoomID `json:"roomId,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	AIMode   bool   `json:"aiMode,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`

	Speech *SpeechParams `json:"speech,omitempty"`
}

// SpeechParams tells the client how the bot's speech side is set up so it can
// initialise capture and playback.
type SpeechParams struct {
	Provider          string `json:"provider"`
	Language          string `json:"language"`
	Voice             string `json:"voice,omitempty"`
	AudioFormat       string `json:"audioFormat,omitempty"`
	ServerRecognition bool   `json:"serverRecognition"`
	MaxAudioBytes     int64  `json:"maxAudioBytes,omitempty"`
}

// ParseMessage decodes one inbound frame. Unknown kinds are returned as is,
// the dispatcher decides what to do with them.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, ErrBadMessage
	}
	if m.Type == "" {
		return Message{}, ErrBadMessage
	}
	return m, nil
}

func JoinNotice(room RoomID) Message  { return Message{Type: KindJoin, RoomID: room} }
func LeaveNotice(room RoomID) Message { return Message{Type: KindLeave, RoomID: room} }

func StatusMessage(status string) Message { return Message{Type: KindStatus, Status: status} }
func ErrorMessage(text string) Message    { return Message{Type: KindError, Message: text} }

func AIResponse(text string) Message { return Message{Type: KindAIResponse, Text: text} }
func UserSpeech(text string) Message { return Message{Type: KindUserSpeech, Text: text} }

func AIModeActive(room RoomID, p SpeechParams) Message {
	return Message{Type: KindAIModeActive, RoomID: room, Language: p.Language, Speech: &p}
}
