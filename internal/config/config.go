package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kbazanov/bookly/internal/models"
)

type Config struct {
	SERVER_ADDR   string
	DATABASE_URL  string
	JWT_SECRET    string
	REDIS_URL     string
	KAFKA_ADDRESS string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
	MAIL_SERVER   string
	MAIL_PORT     string
	MAIL_USERNAME string
	MAIL_PASSWORD string
	MAIL_FROM     string
	DOMAIN        string
	LOG_LEVEL     string

	// Max age of email verification / password reset links. The token itself
	// carries no expiry; the decoder enforces this window.
	ACTION_TOKEN_MAX_AGE time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		SERVER_ADDR:          getenv("SERVER_ADDR", ":8000"),
		DATABASE_URL:         os.Getenv("DATABASE_URL"),
		JWT_SECRET:           os.Getenv("JWT_SECRET"),
		REDIS_URL:            getenv("REDIS_URL", "redis://localhost:6379/0"),
		KAFKA_ADDRESS:        os.Getenv("KAFKA_ADDRESS"),
		ES_URL:               os.Getenv("ES_URL"),
		ES_USER:              os.Getenv("ES_USER"),
		ES_PASSWORD:          os.Getenv("ES_PASSWORD"),
		MAIL_SERVER:          os.Getenv("MAIL_SERVER"),
		MAIL_PORT:            getenv("MAIL_PORT", "587"),
		MAIL_USERNAME:        os.Getenv("MAIL_USERNAME"),
		MAIL_PASSWORD:        os.Getenv("MAIL_PASSWORD"),
		MAIL_FROM:            os.Getenv("MAIL_FROM"),
		DOMAIN:               getenv("DOMAIN", "localhost:8000"),
		LOG_LEVEL:            getenv("LOG_LEVEL", "info"),
		ACTION_TOKEN_MAX_AGE: getduration("ACTION_TOKEN_MAX_AGE", 24*time.Hour),
	}

	return config, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Notice: invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DATABASE_URL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}); err != nil {
		return nil, err
	}
	return db, nil
}
