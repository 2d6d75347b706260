package ai

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sid = "x"

func newTestBot(t *testing.T, a *fakeAssistant) (*Bot, *fakeVoice, *recordingOutbox) {
	t.Helper()
	voice, err := a.NewVoice("en-US")
	require.NoError(t, err)
	out := newRecordingOutbox()
	bot := NewBot(context.Background(), "r1", "en-US", a, voice, targetOutput{outbox: out, sid: sid}, BotConfig{RequestTimeout: time.Second})
	t.Cleanup(bot.Close)
	return bot, voice.(*fakeVoice), out
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestBotTurnWalksStates(t *testing.T) {
	a := newFakeAssistant()
	completing, releaseCompletion := make(chan struct{}), make(chan struct{})
	speaking, releaseSpeech := make(chan struct{}), make(chan struct{})
	a.complete = func(context.Context, []domain.ChatEntry) (string, error) {
		close(completing)
		<-releaseCompletion
		return "hi there", nil
	}
	a.synthesize = func(_ context.Context, text string) (io.ReadCloser, error) {
		close(speaking)
		<-releaseSpeech
		return io.NopCloser(strings.NewReader("pcm")), nil
	}
	bot, _, out := newTestBot(t, a)
	assert.Equal(t, StateIdle, bot.State())

	assert.False(t, bot.Submit("hello"))
	waitFor(t, completing)
	assert.Equal(t, StateAwaitingCompletion, bot.State())

	close(releaseCompletion)
	waitFor(t, speaking)
	assert.Equal(t, StateSpeaking, bot.State())

	close(releaseSpeech)
	bot.Wait()
	assert.Equal(t, StateIdle, bot.State())

	assert.Equal(t, []domain.ChatEntry{
		{Role: domain.RoleSystem, Text: domain.DefaultSystemPrompt},
		{Role: domain.RoleUser, Text: "hello"},
		{Role: domain.RoleAssistant, Text: "hi there"},
	}, bot.History())
	assert.Equal(t, []domain.Message{domain.AIResponse("hi there")}, out.Messages(sid))
	assert.Equal(t, [][]byte{[]byte("pcm")}, out.Audio(sid))
}

func TestBotCompletionFailureKeepsUserEntry(t *testing.T) {
	a := newFakeAssistant()
	a.complete = func(context.Context, []domain.ChatEntry) (string, error) { return "", errService }
	bot, _, out := newTestBot(t, a)

	bot.Submit("hello")
	bot.Wait()

	assert.Equal(t, StateIdle, bot.State())
	history := bot.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChatEntry{Role: domain.RoleUser, Text: "hello"}, history[1])
	assert.Equal(t, []domain.Message{domain.ErrorMessage(domain.MsgRequestFailed)}, out.Messages(sid))
	assert.Empty(t, out.Audio(sid))
}

func TestBotEmptyCompletionIsAnError(t *testing.T) {
	a := newFakeAssistant()
	a.complete = func(context.Context, []domain.ChatEntry) (string, error) { return "  ", nil }
	bot, _, out := newTestBot(t, a)

	bot.Submit("hello")
	bot.Wait()

	assert.Len(t, bot.History(), 2)
	assert.Len(t, out.OfKind(sid, domain.KindError), 1)
	assert.Empty(t, out.OfKind(sid, domain.KindAIResponse))
}

func TestBotSynthesisFailureReturnsToIdle(t *testing.T) {
	a := newFakeAssistant()
	a.synthesize = func(context.Context, string) (io.ReadCloser, error) { return nil, errService }
	bot, _, out := newTestBot(t, a)

	bot.Submit("hello")
	bot.Wait()

	assert.Equal(t, StateIdle, bot.State())
	assert.Len(t, bot.History(), 3)
	assert.Equal(t, []domain.Message{
		domain.AIResponse("re: hello"),
		domain.ErrorMessage(domain.MsgSpeechFailed),
	}, out.Messages(sid))
}

func TestBotQueuesOnlyNewestPendingSubmission(t *testing.T) {
	a := newFakeAssistant()
	first, release := make(chan struct{}), make(chan struct{})
	calls := 0
	a.complete = func(_ context.Context, history []domain.ChatEntry) (string, error) {
		calls++
		if calls == 1 {
			close(first)
			<-release
		}
		return "re: " + history[len(history)-1].Text, nil
	}
	bot, _, out := newTestBot(t, a)

	assert.False(t, bot.Submit("a"))
	waitFor(t, first)
	assert.True(t, bot.Submit("b"))
	assert.True(t, bot.Submit("c"))

	close(release)
	bot.Wait()

	assert.Len(t, a.Calls(), 2)
	texts := []string{}
	for _, e := range bot.History()[1:] {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"a", "re: a", "c", "re: c"}, texts)
	assert.Len(t, out.OfKind(sid, domain.KindAIResponse), 2)
	assert.Equal(t, StateIdle, bot.State())
}

func TestBotCloseDiscardsInFlightOutput(t *testing.T) {
	a := newFakeAssistant()
	entered, release := make(chan struct{}), make(chan struct{})
	a.complete = func(context.Context, []domain.ChatEntry) (string, error) {
		close(entered)
		<-release
		return "late", nil
	}
	bot, voice, out := newTestBot(t, a)

	bot.Submit("hello")
	waitFor(t, entered)
	bot.Close()
	assert.True(t, voice.Closed())

	close(release)
	bot.Wait()
	assert.Empty(t, out.Messages(sid))
	assert.False(t, bot.Submit("again"))
}

func TestBotHearRecognizesThenAnswers(t *testing.T) {
	a := newFakeAssistant()
	bot, _, out := newTestBot(t, a)

	bot.Hear([]byte("what time is it"))
	bot.Wait()

	assert.Equal(t, []domain.Message{
		domain.StatusMessage(domain.StatusProcessing),
		domain.UserSpeech("what time is it"),
		domain.AIResponse("re: what time is it"),
	}, out.Messages(sid))
	assert.Len(t, bot.History(), 3)
}

func TestBotHearFailureReportsError(t *testing.T) {
	a := newFakeAssistant()
	a.recognize = func(context.Context, io.Reader) (string, error) { return "", errService }
	bot, _, out := newTestBot(t, a)

	bot.Hear([]byte("noise"))
	bot.Wait()

	assert.Equal(t, []domain.Message{
		domain.StatusMessage(domain.StatusProcessing),
		domain.ErrorMessage(domain.MsgAudioFailed),
	}, out.Messages(sid))
	assert.Len(t, bot.History(), 1)
}
