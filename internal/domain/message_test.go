package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage([]byte(`{"type":"ai-mode","roomId":"r1","aiMode":true,"language":"de-DE"}`))
	require.NoError(t, err)
	assert.Equal(t, KindAIMode, m.Type)
	assert.Equal(t, RoomID("r1"), m.RoomID)
	assert.True(t, m.AIMode)
	assert.Equal(t, "de-DE", m.Language)

	m, err = ParseMessage([]byte(`{"type":"offer","roomId":"r1","offer":{"sdp":"v=0"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"sdp":"v=0"}`, string(m.Offer))

	m, err = ParseMessage([]byte(`{"type":"teleport"}`))
	require.NoError(t, err)
	assert.Equal(t, Kind("teleport"), m.Type)
}

func TestParseMessageRejects(t *testing.T) {
	for _, raw := range []string{``, `nope`, `{}`, `{"roomId":"r1"}`, `{"type":42}`, `[1,2]`} {
		_, err := ParseMessage([]byte(raw))
		assert.ErrorIs(t, err, ErrBadMessage, raw)
	}
}

func TestKindRelayed(t *testing.T) {
	for _, k := range []Kind{KindOffer, KindAnswer, KindICECandidate} {
		assert.True(t, k.Relayed(), k)
	}
	for _, k := range []Kind{KindJoin, KindLeave, KindAIMode, KindAIText, Kind("candidate")} {
		assert.False(t, k.Relayed(), k)
	}
}

func TestOutboundShapes(t *testing.T) {
	b, err := json.Marshal(JoinNotice("r1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join","roomId":"r1"}`, string(b))

	b, err = json.Marshal(ErrorMessage(MsgBotNotInitialized))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"AI bot not initialized"}`, string(b))

	b, err = json.Marshal(AIModeActive("r1", SpeechParams{Provider: "openai", Language: "en-US"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ai-mode-active","roomId":"r1","language":"en-US","speech":{"provider":"openai","language":"en-US","serverRecognition":false}}`, string(b))
}
