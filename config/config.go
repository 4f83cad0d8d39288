package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB  int    `mapstructure:"REDIS_SESSION_DB"`
	RedisReminderDB int    `mapstructure:"REDIS_REMINDER_DB"`

	// Mongo connection for the booking archive.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Google credentials.
	GeminiAPIKey             string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel              string `mapstructure:"GEMINI_MODEL"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Dialogue policy.
	AppointmentDurationMin int    `mapstructure:"APPOINTMENT_DURATION_MIN"`
	Timezone               string `mapstructure:"TIMEZONE"`
	FieldRetryLimit        int    `mapstructure:"FIELD_RETRY_LIMIT"`
	ResolverTimeoutSec     int    `mapstructure:"RESOLVER_TIMEOUT_SEC"`
	SessionTTLMin          int    `mapstructure:"SESSION_TTL_MIN"`
	KnownEmailDomains      string `mapstructure:"KNOWN_EMAIL_DOMAINS"`

	// Calendar, speech and reminders.
	CalendarID        string `mapstructure:"CALENDAR_ID"`
	TTSVoice          string `mapstructure:"TTS_VOICE"`
	TTSLanguage       string `mapstructure:"TTS_LANGUAGE"`
	STTSampleRateHz   int    `mapstructure:"STT_SAMPLE_RATE_HZ"`
	STTLanguage       string `mapstructure:"STT_LANGUAGE"`
	MinAudioSizeBytes int    `mapstructure:"MIN_AUDIO_SIZE_BYTES"`
	ReminderLeadMin   int    `mapstructure:"REMINDER_LEAD_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_REMINDER_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "credentials.json")
	viper.SetDefault("APPOINTMENT_DURATION_MIN", 30)
	viper.SetDefault("TIMEZONE", "Europe/London")
	viper.SetDefault("FIELD_RETRY_LIMIT", 2)
	viper.SetDefault("RESOLVER_TIMEOUT_SEC", 8)
	viper.SetDefault("SESSION_TTL_MIN", 30)
	viper.SetDefault("KNOWN_EMAIL_DOMAINS", "gmail,outlook,hotmail,yahoo,icloud,protonmail,aol,zoho,live,msn,me")
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("TTS_VOICE", "en-GB-Neural2-A")
	viper.SetDefault("TTS_LANGUAGE", "en-GB")
	viper.SetDefault("STT_SAMPLE_RATE_HZ", 16000)
	viper.SetDefault("STT_LANGUAGE", "en-GB")
	viper.SetDefault("MIN_AUDIO_SIZE_BYTES", 600)
	viper.SetDefault("REMINDER_LEAD_MIN", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// KnownDomains returns the recognized email providers as a lookup set.
func KnownDomains() map[string]bool {
	out := make(map[string]bool)
	for _, d := range strings.Split(AppConfig.KnownEmailDomains, ",") {
		d = strings.TrimSpace(strings.ToLower(d))
		if d != "" {
			out[d] = true
		}
	}
	return out
}
