package openai

import (
	"context"
	"strings"

	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure-openai"
)

// Assistant serves completions and speech from OpenAI, or from Azure OpenAI
// when an endpoint is configured.
type Assistant struct {
	client   *goopenai.Client
	cfg      config.AI
	provider string
}

var _ core.Assistant = (*Assistant)(nil)

func New(cfg config.AI) *Assistant {
	if !cfg.Configured() {
		log.Warn().Str("module", "openai").Msg("no api key, ai mode disabled")
		return &Assistant{cfg: cfg}
	}
	return NewWithClientConfig(cfg, ClientConfig(cfg))
}

// ClientConfig builds the go-openai client settings for cfg.
func ClientConfig(cfg config.AI) goopenai.ClientConfig {
	if cfg.Endpoint == "" {
		return goopenai.DefaultConfig(cfg.APIKey)
	}
	cc := goopenai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		cc.APIVersion = cfg.APIVersion
	}
	if cfg.Deployment != "" {
		deployment, chatModel, fallback := cfg.Deployment, cfg.Model, cc.AzureModelMapperFunc
		cc.AzureModelMapperFunc = func(model string) string {
			if model == chatModel {
				return deployment
			}
			return fallback(model)
		}
	}
	return cc
}

func NewWithClientConfig(cfg config.AI, cc goopenai.ClientConfig) *Assistant {
	provider := ProviderOpenAI
	if cfg.Endpoint != "" {
		provider = ProviderAzure
	}
	log.Info().Str("module", "openai").Str("provider", provider).Str("model", cfg.Model).Msg("assistant ready")
	return &Assistant{
		client:   goopenai.NewClientWithConfig(cc),
		cfg:      cfg,
		provider: provider,
	}
}

func (a *Assistant) Configured() bool {
	return a.client != nil
}

func (a *Assistant) Complete(ctx context.Context, history []domain.ChatEntry) (string, error) {
	if a.client == nil {
		return "", domain.ErrNotConfigured
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, e := range history {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: chatRole(e.Role), Content: e.Text})
	}

	resp, err := a.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    msgs,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a *Assistant) NewVoice(language string) (core.Voice, error) {
	if a.client == nil {
		return nil, domain.ErrNotConfigured
	}
	if language == "" {
		language = a.cfg.Language
	}
	return &Voice{
		client:   a.client,
		cfg:      a.cfg,
		language: language,
	}, nil
}

func (a *Assistant) ClientParams(language string) domain.SpeechParams {
	if language == "" {
		language = a.cfg.Language
	}
	return domain.SpeechParams{
		Provider:          a.provider,
		Language:          language,
		Voice:             a.cfg.Voice,
		AudioFormat:       string(goopenai.SpeechResponseFormatMp3),
		ServerRecognition: true,
		MaxAudioBytes:     a.cfg.MaxAudioBytes,
	}
}

func chatRole(r domain.Role) string {
	switch r {
	case domain.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}
