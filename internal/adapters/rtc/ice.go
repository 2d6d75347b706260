package rtc

import (
	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// BrowserConfig is the peer connection configuration handed to browsers.
// The relay never terminates media itself.
func BrowserConfig(servers []config.ICEServer) webrtc.Configuration {
	if len(servers) == 0 {
		return DefaultWebRTCConfig()
	}
	out := webrtc.Configuration{ICEServers: make([]webrtc.ICEServer, 0, len(servers))}
	for _, s := range servers {
		if len(s.URLs) == 0 {
			log.Warn().Str("module", "rtc").Msg("ice server without urls skipped")
			continue
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out.ICEServers = append(out.ICEServers, srv)
	}
	if len(out.ICEServers) == 0 {
		return DefaultWebRTCConfig()
	}
	return out
}
