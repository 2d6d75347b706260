package core

import (
	"context"
	"io"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

// Assistant is the speech + language model capability behind AI mode.
// Provider selection happens in the adapter, the core only sees this.
type Assistant interface {
	// Configured reports whether credentials for completion and speech are present.
	Configured() bool
	Complete(ctx context.Context, history []domain.ChatEntry) (string, error)
	// NewVoice opens the per-session speech handle for the given language.
	NewVoice(language string) (Voice, error)
	// ClientParams is what the browser needs to set up its side of the speech loop.
	ClientParams(language string) domain.SpeechParams
}

// Voice is the synthesis/recognition handle owned by one AI session.
type Voice interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
	Recognize(ctx context.Context, audio io.Reader) (string, error)
	Close() error
}
