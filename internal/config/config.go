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

	JWTSecret         string
	DeviceTokenSecret string

	AccessTokenMaxAge int // seconds
	DeviceTokenMaxAge int // seconds
	MagicLinkMaxAge   int // seconds
	MaxDevicesPerUser int

	RedisURL string

	PostmarkServerToken string
	PostmarkFromEmail   string
	AppBaseURL          string

	VAPIDPublicKey  string
	VAPIDPrivateKey string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// DevMode surfaces magic-link URLs in API responses instead of sending
	// mail when no email provider is configured.
	DevMode bool
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:" + serverPort
	}

	devMode, _ := strconv.ParseBool(os.Getenv("DEV_MODE"))

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret:         os.Getenv("JWT_SECRET"),
		DeviceTokenSecret: os.Getenv("DEVICE_TOKEN_SECRET"),

		AccessTokenMaxAge: envInt("ACCESS_TOKEN_MAX_AGE", 900),
		DeviceTokenMaxAge: envInt("DEVICE_TOKEN_MAX_AGE", 365*24*3600),
		MagicLinkMaxAge:   envInt("MAGIC_LINK_MAX_AGE", 900),
		MaxDevicesPerUser: envInt("MAX_DEVICES_PER_USER", 10),

		RedisURL: os.Getenv("REDIS_URL"),

		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		PostmarkFromEmail:   os.Getenv("POSTMARK_FROM_EMAIL"),
		AppBaseURL:          appBaseURL,

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		DevMode: devMode,
	}, nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
