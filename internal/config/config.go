package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	StaticPath    string        `mapstructure:"static_path"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	WriteWait     time.Duration `mapstructure:"write_wait"`
	SendBuffer    int           `mapstructure:"send_buffer"`
	Secret        string        `mapstructure:"secret"`
	LogLevel      string        `mapstructure:"log_level"`
	Backpressure  string        `mapstructure:"backpressure"`
	MaxMessages   int           `mapstructure:"max_messages"`
	MessageWindow time.Duration `mapstructure:"message_window"`
	ICEServers    []ICEServer   `mapstructure:"ice_servers"`
	AI            AI            `mapstructure:"ai"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// AI configures the language model and speech services. With an endpoint set
// the Azure OpenAI flavour is used.
type AI struct {
	APIKey         string        `mapstructure:"api_key"`
	Endpoint       string        `mapstructure:"endpoint"`
	Deployment     string        `mapstructure:"deployment"`
	APIVersion     string        `mapstructure:"api_version"`
	Model          string        `mapstructure:"model"`
	Temperature    float32       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	SystemPrompt   string        `mapstructure:"system_prompt"`
	Voice          string        `mapstructure:"voice"`
	TTSModel       string        `mapstructure:"tts_model"`
	STTModel       string        `mapstructure:"stt_model"`
	Language       string        `mapstructure:"language"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxAudioBytes  int64         `mapstructure:"max_audio_bytes"`
}

func (a AI) Configured() bool {
	return a.APIKey != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "voice-relay-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("max_messages", 50)
	v.SetDefault("message_window", "1s")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	v.SetDefault("ai.api_version", "2024-02-01")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 150)
	v.SetDefault("ai.voice", "alloy")
	v.SetDefault("ai.tts_model", "tts-1")
	v.SetDefault("ai.stt_model", "whisper-1")
	v.SetDefault("ai.language", "en-US")
	v.SetDefault("ai.request_timeout", "30s")
	v.SetDefault("ai.max_audio_bytes", 4<<20)
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"ai.api_key":    {"VOICE_AI_API_KEY", "OPENAI_API_KEY", "AZURE_OPENAI_KEY"},
		"ai.endpoint":   {"VOICE_AI_ENDPOINT", "AZURE_OPENAI_ENDPOINT"},
		"ai.deployment": {"VOICE_AI_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT_NAME"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Flags registers the command line overrides understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default config/config.<CONFIG_ENV>.yaml)")
	fs.Int("port", 8080, "HTTP port")
	fs.String("mode", "release", "gin mode: debug or release")
	fs.String("log-level", "info", "log level")
}

// Load reads the config file, then environment, then any flags that were set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	fileName := ""
	if fs != nil {
		fileName, _ = fs.GetString("config")
		for key, flag := range map[string]string{"port": "port", "mode": "mode", "log_level": "log-level"} {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Bool("ai", cfg.AI.Configured()).Msg("config ready")
	return &cfg, nil
}
