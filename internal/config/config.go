package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	// RedisURL enables the engagement event stream and the reconciliation
	// workers. Empty disables both; the API serves without them.
	RedisURL    string
	WorkerCount int

	// S3 settings for the banner upload URL issuer. All four must be set or
	// the media endpoint is disabled.
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: workerCount,

		S3Region:          os.Getenv("S3_REGION"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3BucketName:      os.Getenv("S3_BUCKET_NAME"),
	}, nil
}

// MediaConfigured reports whether the upload URL issuer can be constructed.
func (c *Config) MediaConfigured() bool {
	return c.S3Region != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != "" && c.S3BucketName != ""
}
