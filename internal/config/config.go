package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Session gate. The API itself has no user management; it only verifies
	// bearer tokens minted by the session layer in front of it.
	SessionSecret string `mapstructure:"SESSION_JWT_SECRET"`

	// Media upload subsystem. MediaBackend selects the storage backend once
	// at startup: "local", "s3", or "" (auto: s3 if a bucket is configured,
	// local otherwise).
	MediaBackend   string `mapstructure:"MEDIA_BACKEND"`
	EphemeralFS    bool   `mapstructure:"EPHEMERAL_FS"`
	UploadsDir     string `mapstructure:"UPLOADS_DIR"`
	UploadsBaseURL string `mapstructure:"UPLOADS_BASE_URL"`
	S3Bucket       string `mapstructure:"MEDIA_S3_BUCKET"`
	S3Region       string `mapstructure:"MEDIA_S3_REGION"`
	S3Prefix       string `mapstructure:"MEDIA_S3_PREFIX"`
	S3PublicURL    string `mapstructure:"MEDIA_S3_PUBLIC_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MEDIA_BACKEND", "")
	v.SetDefault("UPLOADS_DIR", "public/uploads")
	v.SetDefault("UPLOADS_BASE_URL", "/uploads")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SESSION_JWT_SECRET")
	v.BindEnv("MEDIA_BACKEND")
	v.BindEnv("EPHEMERAL_FS")
	v.BindEnv("UPLOADS_DIR")
	v.BindEnv("UPLOADS_BASE_URL")
	v.BindEnv("MEDIA_S3_BUCKET")
	v.BindEnv("MEDIA_S3_REGION")
	v.BindEnv("MEDIA_S3_PREFIX")
	v.BindEnv("MEDIA_S3_PUBLIC_URL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: The session gate is disabled; all requests are allowed through.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedMediaBackend returns the effective media backend. If MEDIA_BACKEND
// is explicitly set, it is returned. Otherwise the backend is inferred: "s3"
// when an S3 bucket is configured, "local" otherwise.
func (c *Config) ResolvedMediaBackend() string {
	if c.MediaBackend != "" {
		return c.MediaBackend
	}
	if c.S3Bucket != "" {
		return "s3"
	}
	return "local"
}

// Validate checks that the configuration is safe to run. Outside development
// the session gate must have a signing secret, and an ephemeral-filesystem
// deployment must not rely on local uploads storage: files written there
// vanish on the next deploy, so we refuse to start rather than silently
// accept uploads that will be lost.
func (c *Config) Validate() error {
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_JWT_SECRET is required when ENV is not development")
	}

	switch backend := c.ResolvedMediaBackend(); backend {
	case "local":
		if c.EphemeralFS {
			return fmt.Errorf(
				"EPHEMERAL_FS is set but no remote media backend is configured. " +
					"Uploads written to the local filesystem would not survive a redeploy. " +
					"Configure MEDIA_S3_BUCKET or unset EPHEMERAL_FS")
		}
		if c.UploadsDir == "" {
			return fmt.Errorf("UPLOADS_DIR must not be empty when the local media backend is selected")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("MEDIA_S3_BUCKET is required when MEDIA_BACKEND is \"s3\"")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be \"local\" or \"s3\", got %q", backend)
	}

	return nil
}
