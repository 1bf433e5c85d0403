package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is loaded once at process start and never mutated afterwards.
type Config struct {
	Env        string `env:"APP_ENV" env-default:"local"`
	HTTPServer HTTPServer
	Mongo      Mongo
	Auth       Auth
	URLs       URLs
	Email      Email
	OAuth      OAuth
}

type HTTPServer struct {
	Address      string        `env:"HTTP_ADDRESS" env-default:":8000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Mongo struct {
	URI      string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string        `env:"MONGO_DATABASE" env-default:"ecommerce"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT" env-default:"10s"`
}

// Auth holds the signing secrets and token lifetimes.
type Auth struct {
	AccessSecret  string        `env:"JWT_SECRET" env-required:"true"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	VerifyTTL     time.Duration `env:"VERIFY_TOKEN_TTL" env-default:"10m"`
}

type URLs struct {
	// BaseURL is the public address of this API, used in verification links.
	BaseURL string `env:"BASE_URL" env-default:"http://localhost:8000"`
	// FrontendURL is where browser flows are redirected after verification or OAuth.
	FrontendURL string `env:"FE_URL" env-default:"http://localhost:3000"`
}

type Email struct {
	Provider    string `env:"EMAIL_PROVIDER" env-default:"postmark"`
	PostmarkKey string `env:"POSTMARK_API_TOKEN"`
	SendGridKey string `env:"SENDGRID_API_KEY"`
	SenderEmail string `env:"EMAIL_SENDER" env-default:"no-reply@localhost"`
	SenderName  string `env:"EMAIL_SENDER_NAME" env-default:"Cocoon"`
}

type OAuth struct {
	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_APP_ID"`
	FacebookClientSecret string `env:"FACEBOOK_APP_SECRET"`
}

// MustLoad reads an optional .env file and then the process environment.
// It panics when a required value is missing.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	return cfg
}

func load() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
