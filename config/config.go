package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DevMode bool

	HostPort      string
	AllowedOrigin string

	DynamoDBEndpoint string
	DynamoDBTable    string

	SQSEndpoint      string
	CleanupQueueName string

	RedisEndpoint string

	JWTSecret []byte

	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
}

// Load reads configuration from the environment, with an optional .env
// file for local development. A missing .env file is not an error.
func Load(envPath ...string) (*Config, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		slog.Info("No .env file loaded, relying on environment", "error", err)
	}

	cfg := &Config{
		DevMode:            os.Getenv("DEV_MODE") == "true",
		HostPort:           getEnv("HOST_PORT", "8080"),
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		DynamoDBEndpoint:   os.Getenv("DYNAMODB_ENDPOINT"),
		DynamoDBTable:      getEnv("DYNAMODB_TABLE", "Artmart"),
		SQSEndpoint:        os.Getenv("SQS_ENDPOINT"),
		CleanupQueueName:   getEnv("CLEANUP_QUEUE_NAME", "ArtworkCleanupQueue"),
		RedisEndpoint:      os.Getenv("REDIS_ENDPOINT"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   os.Getenv("OAUTH_REDIRECT_URL"),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret, err = base64.StdEncoding.DecodeString(jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 JWT_SECRET: %w", err)
	}

	if cfg.RedisEndpoint == "" {
		return nil, fmt.Errorf("REDIS_ENDPOINT environment variable is required")
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
