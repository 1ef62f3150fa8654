package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors config.yaml. Secrets never live here; they come from
// the environment (or .env).
type fileConfig struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Auth struct {
		TokenTTL time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	Redis struct {
		URL        string        `yaml:"url"`
		ProductTTL time.Duration `yaml:"product_ttl"`
	} `yaml:"redis"`
	Storage struct {
		UploadDir string      `yaml:"upload_dir"`
		MinIO     MinIOConfig `yaml:"minio"`
	} `yaml:"storage"`
	Payments struct {
		Currency    string `yaml:"currency"`
		StripeURL   string `yaml:"stripe_url"`
		RazorpayURL string `yaml:"razorpay_url"`
	} `yaml:"payments"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type Config struct {
	Port          string
	CORSOrigins   []string
	MongoURI      string
	MongoDatabase string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	RedisURL        string
	ProductCacheTTL time.Duration

	UploadDir string
	MinIO     MinIOConfig

	Currency          string
	StripeSecretKey   string
	StripeURL         string
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayURL       string
}

const defaultJWTSecret = "SECRET"

// LoadConfig reads .env, then the YAML file at path (a missing file is not
// an error), then lets environment variables override both.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	var fc fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	return buildConfig(fc, os.Getenv), nil
}

func buildConfig(fc fileConfig, getenv func(string) string) *Config {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:          env("PORT", orDefault(fc.Server.Port, "8080")),
		CORSOrigins:   fc.Server.CORSOrigins,
		MongoURI:      env("MONGO_PUBLIC_URL", env("MONGO_URL", orDefault(fc.Mongo.URI, "mongodb://localhost:27017"))),
		MongoDatabase: env("MONGO_DB", orDefault(fc.Mongo.Database, "furniture")),

		JWTSecret:     env("JWT_SECRET", defaultJWTSecret),
		TokenTTL:      fc.Auth.TokenTTL,
		AdminEmail:    unquote(getenv("ADMIN_EMAIL")),
		AdminPassword: unquote(getenv("ADMIN_PASSWORD")),

		RedisURL:        env("REDIS_URL", fc.Redis.URL),
		ProductCacheTTL: fc.Redis.ProductTTL,

		UploadDir: env("UPLOAD_DIR", orDefault(fc.Storage.UploadDir, "uploads")),
		MinIO:     fc.Storage.MinIO,

		Currency:          env("CURRENCY", orDefault(fc.Payments.Currency, "inr")),
		StripeSecretKey:   getenv("STRIPE_SECRET_KEY"),
		StripeURL:         orDefault(fc.Payments.StripeURL, "https://api.stripe.com"),
		RazorpayKeyID:     getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: getenv("RAZORPAY_KEY_SECRET"),
		RazorpayURL:       orDefault(fc.Payments.RazorpayURL, "https://api.razorpay.com"),
	}

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ProductCacheTTL <= 0 {
		cfg.ProductCacheTTL = 5 * time.Minute
	}
	cfg.MinIO.Endpoint = env("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.Bucket = env("MINIO_BUCKET", orDefault(cfg.MinIO.Bucket, "furniture"))
	cfg.MinIO.AccessKey = getenv("MINIO_ACCESS_KEY")
	cfg.MinIO.SecretKey = getenv("MINIO_SECRET_KEY")

	return cfg
}

var errDevSecret = errors.New("JWT_SECRET is not set; export it or pass --dev to use the development secret")

// CheckSecrets refuses the built-in JWT secret unless dev is set.
func (c *Config) CheckSecrets(dev bool) error {
	if c.JWTSecret != defaultJWTSecret {
		return nil
	}
	if !dev {
		return errDevSecret
	}
	log.Printf("[config] WARNING: JWT_SECRET not set, using the development secret")
	return nil
}

// String renders the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("port=%s mongo_db=%s redis=%t minio=%t stripe=%t razorpay=%t cors=%v",
		c.Port, c.MongoDatabase, c.RedisURL != "", c.MinIO.Endpoint != "",
		c.StripeSecretKey != "", c.RazorpayKeyID != "", c.CORSOrigins)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// unquote strips the quotes some hosting dashboards keep around values.
func unquote(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, `"`, ""))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
