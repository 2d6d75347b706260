package rtc

import (
	"testing"

	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserConfigDefaults(t *testing.T) {
	assert.Equal(t, DefaultWebRTCConfig(), BrowserConfig(nil))
	assert.Equal(t, DefaultWebRTCConfig(), BrowserConfig([]config.ICEServer{{}}))
}

func TestBrowserConfigTurn(t *testing.T) {
	cfg := BrowserConfig([]config.ICEServer{
		{URLs: []string{"stun:stun.example.org"}},
		{URLs: []string{"turn:turn.example.org:3478"}, Username: "relay", Credential: "pw"},
	})

	require.Len(t, cfg.ICEServers, 2)
	assert.Empty(t, cfg.ICEServers[0].Username)
	assert.Equal(t, "relay", cfg.ICEServers[1].Username)
	assert.Equal(t, "pw", cfg.ICEServers[1].Credential)
	assert.Equal(t, webrtc.ICECredentialTypePassword, cfg.ICEServers[1].CredentialType)
}
