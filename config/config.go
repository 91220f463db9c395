package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Token      TokenConfig
	Mail       MailConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// TokenConfig holds the signing secret and lifetime for issued bearer tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// MailConfig selects and configures the verification-mail backend.
// Backend is one of "smtp", "sendgrid", "rabbitmq", "pubsub".
type MailConfig struct {
	Backend        string
	From           string
	Queue          string
	SMTP           SMTPConfig
	SendGridAPIKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "identia"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "identia_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	tokenConfig := TokenConfig{
		Secret: getEnv("JWT_SECRET", ""),
		TTL:    time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
	}

	mailConfig := MailConfig{
		Backend: getEnv("MAIL_BACKEND", "smtp"),
		From:    getEnv("MAIL_FROM", "no-reply@identia.local"),
		Queue:   getEnv("MAIL_QUEUE", "verification-mail"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 465),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
	}

	rabbitConfig := RabbitMQConfig{
		URL:             getEnv("RABBITMQ_URL", ""),
		QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
		QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
		PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
	}

	pubsubConfig := PubSubConfig{
		ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
		CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Token:      tokenConfig,
		Mail:       mailConfig,
		RabbitMQ:   rabbitConfig,
		PubSub:     pubsubConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
