// config.go
package config

import "os"

type Config struct {
	MongoURI    string
	MongoDBName string
	RedisAddr   string
	RabbitURL   string
	Port        string

	JWTSecret     string
	WebhookSecret string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	AssistURL string
	AssistKey string
}

func Load() *Config {
	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "marketplace_db"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:   getEnv("RABBIT_URL", "amqp://localhost"),
		Port:        getEnv("PORT", "8080"),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("EMAIL_USER", ""),
		SMTPPass: getEnv("EMAIL_PASS", ""),

		AssistURL: getEnv("ASSIST_API_URL", ""),
		AssistKey: getEnv("ASSIST_API_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
