package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Chat transport providers selectable via CHAT_PROVIDER.
const (
	ChatProviderTelegram = "telegram"
	ChatProviderWhatsApp = "whatsapp"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSigningKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ChatProvider         string
	TelegramBotToken     string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	SweepSpec     string
	LocalTimezone *time.Location
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	return &Config{
		Port:        getenvDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     ParseIntEnv("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getenvDefault("SMTP_FROM", os.Getenv("SMTP_USERNAME")),

		ChatProvider:         getenvDefault("CHAT_PROVIDER", ChatProviderTelegram),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),

		// Once per minute, the sweep's fixed interval.
		SweepSpec:     getenvDefault("SWEEP_CRON_SPEC", "* * * * *"),
		LocalTimezone: location,
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}
