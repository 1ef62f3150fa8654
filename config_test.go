package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg := buildConfig(fileConfig{}, envMap(nil))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "furniture", cfg.MongoDatabase)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "inr", cfg.Currency)
	assert.Equal(t, "furniture", cfg.MinIO.Bucket)
	assert.Equal(t, "https://api.stripe.com", cfg.StripeURL)
	assert.Equal(t, "https://api.razorpay.com", cfg.RazorpayURL)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestBuildConfigEnvOverridesFile(t *testing.T) {
	var fc fileConfig
	fc.Server.Port = "9000"
	fc.Server.CORSOrigins = []string{"http://file.example"}
	fc.Mongo.URI = "mongodb://file:27017"
	fc.Auth.TokenTTL = 2 * time.Hour
	fc.Storage.MinIO.Endpoint = "minio.file:9000"

	cfg := buildConfig(fc, envMap(map[string]string{
		"PORT":             "7000",
		"MONGO_URL":        "mongodb://private:27017",
		"MONGO_PUBLIC_URL": "mongodb://public:27017",
		"JWT_SECRET":       "env-secret",
		"ADMIN_EMAIL":      `"owner@example.com"`,
		"ADMIN_PASSWORD":   ` "pa"ss" `,
		"CORS_ORIGINS":     "http://a.example, http://b.example",
		"MINIO_ACCESS_KEY": "ak",
		"MINIO_SECRET_KEY": "sk",
		"MINIO_BUCKET":     "media",
	}))

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "mongodb://public:27017", cfg.MongoURI)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "owner@example.com", cfg.AdminEmail)
	assert.Equal(t, "pass", cfg.AdminPassword)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "minio.file:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "media", cfg.MinIO.Bucket)
	assert.Equal(t, "ak", cfg.MinIO.AccessKey)
	assert.Equal(t, "sk", cfg.MinIO.SecretKey)
}

func TestBuildConfigMongoURLFallback(t *testing.T) {
	cfg := buildConfig(fileConfig{}, envMap(map[string]string{"MONGO_URL": "mongodb://private:27017"}))
	assert.Equal(t, "mongodb://private:27017", cfg.MongoURI)
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "MONGO_URL", "MONGO_PUBLIC_URL", "MONGO_DB", "REDIS_URL", "CURRENCY", "UPLOAD_DIR", "CORS_ORIGINS", "MINIO_ENDPOINT", "MINIO_BUCKET"} {
		t.Setenv(key, "")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "3000"
  cors_origins: ["http://admin.example"]
mongo:
  uri: mongodb://yaml:27017
  database: shop
auth:
  token_ttl: 12h
redis:
  url: redis://cache:6379/0
  product_ttl: 30s
storage:
  upload_dir: /var/uploads
  minio:
    endpoint: s3.example:9000
    bucket: assets
    use_ssl: true
payments:
  currency: usd
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"http://admin.example"}, cfg.CORSOrigins)
	assert.Equal(t, "mongodb://yaml:27017", cfg.MongoURI)
	assert.Equal(t, "shop", cfg.MongoDatabase)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.ProductCacheTTL)
	assert.Equal(t, "/var/uploads", cfg.UploadDir)
	assert.Equal(t, "s3.example:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "assets", cfg.MinIO.Bucket)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "usd", cfg.Currency)
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigStringHidesSecrets(t *testing.T) {
	cfg := buildConfig(fileConfig{}, envMap(map[string]string{
		"JWT_SECRET":        "topsecret",
		"STRIPE_SECRET_KEY": "sk_live_123",
	}))
	s := cfg.String()
	assert.NotContains(t, s, "topsecret")
	assert.NotContains(t, s, "sk_live_123")
	assert.Contains(t, s, "stripe=true")
}

func TestCheckSecrets(t *testing.T) {
	cfg := buildConfig(fileConfig{}, envMap(nil))
	assert.ErrorIs(t, cfg.CheckSecrets(false), errDevSecret)
	assert.NoError(t, cfg.CheckSecrets(true))

	cfg = buildConfig(fileConfig{}, envMap(map[string]string{"JWT_SECRET": "prod-secret"}))
	assert.NoError(t, cfg.CheckSecrets(false))
}
