package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PostgresConfig holds connection settings for the session store.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"required"`
	DbName            string `mapstructure:"db_name" validate:"required"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password"`
	SslMode           string `mapstructure:"ssl_mode"`
	MaxOpenConnection int    `mapstructure:"max_open_connection"`
	MaxIdleConnection int    `mapstructure:"max_idle_connection"`
}

// RedisConfig holds connection settings for the live-call registry.
type RedisConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

// OpenSearchConfig holds connection settings for the analytics sink.
type OpenSearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	User      string   `mapstructure:"user"`
	Password  string   `mapstructure:"password"`
}

// ProviderCredential is one vendor's credential bundle. Any field may be
// empty; a provider with a missing required credential is reported as
// unavailable by its health probe rather than failing startup.
type ProviderCredential struct {
	Key       string `mapstructure:"key"`
	Secret    string `mapstructure:"secret"`
	Region    string `mapstructure:"region"`
	ProjectId string `mapstructure:"project_id"`
}

// TelephonyCredential carries the telephony vendor account settings.
type TelephonyCredential struct {
	AccountSid    string `mapstructure:"account_sid"`
	AccountToken  string `mapstructure:"account_token"`
	ApplicationId string `mapstructure:"application_id"`
	PrivateKey    string `mapstructure:"private_key"`
	FromNumber    string `mapstructure:"from_number"`
}

// IntegrationSink is one outbound webhook destination, registered with
// the event broadcaster at startup.
type IntegrationSink struct {
	Id       string `mapstructure:"id"`
	Url      string `mapstructure:"url"`
	AuthType string `mapstructure:"auth_type"` // bearer, basic or none
	AuthUser string `mapstructure:"auth_user"`
	AuthKey  string `mapstructure:"auth_key"`
	Secret   string `mapstructure:"secret"`
}

// Application config structure
type AppConfig struct {
	Name        string `mapstructure:"service_name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`

	PostgresConfig   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	RedisConfig      RedisConfig      `mapstructure:"redis" validate:"required"`
	OpenSearchConfig OpenSearchConfig `mapstructure:"opensearch"`

	// Default stage providers used when a call does not override them.
	SpeechToTextProvider      string `mapstructure:"stt_provider" validate:"required"`
	ResponseGeneratorProvider string `mapstructure:"llm_provider" validate:"required"`
	SpeechSynthesizerProvider string `mapstructure:"tts_provider" validate:"required"`

	// ProviderTimeout bounds every buffered provider call. The upstream
	// vendors do not guarantee a response; a hung request must not hold a
	// session forever.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" validate:"required"`

	// Poll loop bounds for submit-then-poll transcription vendors.
	PollInterval    time.Duration `mapstructure:"poll_interval" validate:"required"`
	PollMaxAttempts int           `mapstructure:"poll_max_attempts" validate:"required"`

	// DefaultAssistantID answers inbound calls with no explicit routing.
	DefaultAssistantID string `mapstructure:"default_assistant_id"`

	// PublicURL is the externally reachable base for answer and status
	// callback URLs handed to telephony vendors.
	PublicURL string `mapstructure:"public_url" validate:"required"`

	ProviderCredentials map[string]ProviderCredential  `mapstructure:"providers"`
	TelephonyProvider   string                         `mapstructure:"telephony_provider"`
	Telephony           map[string]TelephonyCredential `mapstructure:"telephony"`
	IntegrationSinks    []IntegrationSink              `mapstructure:"integration_sinks"`

	// Shared secret for inbound integration webhooks (HMAC-SHA256).
	IntegrationWebhookSecret string `mapstructure:"integration_webhook_secret"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "call-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")

	v.SetDefault("STT_PROVIDER", "deepgram")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("TTS_PROVIDER", "google")
	v.SetDefault("TELEPHONY_PROVIDER", "twilio")
	v.SetDefault("DEFAULT_ASSISTANT_ID", "")
	v.SetDefault("PUBLIC_URL", "http://localhost:9090")

	v.SetDefault("PROVIDER_TIMEOUT", "30s")
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("POLL_MAX_ATTEMPTS", 30)

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "vocalis_calls")
	v.SetDefault("POSTGRES__USER", "vocalis")
	v.SetDefault("POSTGRES__PASSWORD", "")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDLE_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")

	v.SetDefault("REDIS__HOST", "localhost")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__DB", 0)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
