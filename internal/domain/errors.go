package domain

import "errors"

var (
	ErrBadMessage        = errors.New("bad message")
	ErrMissingRoom       = errors.New("missing roomId")
	ErrNotConfigured     = errors.New("ai capability not configured")
	ErrBotNotInitialized = errors.New("AI bot not initialized")
	ErrEmptyCompletion   = errors.New("empty completion")
	ErrVoiceClosed       = errors.New("voice closed")
	ErrAudioTooLarge     = errors.New("audio clip too large")
)

// Texts sent to clients in `error` messages.
const (
	MsgNotConfigured     = "AI mode not configured. Please set the AI API key."
	MsgBotNotInitialized = "AI bot not initialized"
	MsgRequestFailed     = "Failed to process request"
	MsgSpeechFailed      = "Failed to synthesize speech"
	MsgAudioFailed       = "Failed to process audio"
	MsgStartFailed       = "Failed to start AI mode"
)
