package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		FrontendURL  string        `yaml:"frontendURL"`
		BodyLimitMB  int64         `yaml:"bodyLimitMB"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | memory
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret       string        `yaml:"jwtSecret"`
		AccessTokenTTL  time.Duration `yaml:"accessTokenTTL"`
		RefreshTokenTTL time.Duration `yaml:"refreshTokenTTL"`
		BcryptCost      int           `yaml:"bcryptCost"`
		CookieName      string        `yaml:"cookieName"`
	} `yaml:"auth"`

	AI struct {
		Provider  string `yaml:"provider"` // openai | gemini | offline
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"maxTokens"`
		OpenAI    struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		Gemini struct {
			APIKey string `yaml:"apiKey"`
		} `yaml:"gemini"`
	} `yaml:"ai"`

	Ingest struct {
		MaxFileBytes int64 `yaml:"maxFileBytes"`
	} `yaml:"ingest"`

	Minio struct {
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		PresignTTL time.Duration `yaml:"presignTTL"`
	} `yaml:"minio"`

	PDF struct {
		ChromeBin   string        `yaml:"chromeBin"`
		DebuggerURL string        `yaml:"debuggerURL"`
		Enabled     bool          `yaml:"enabled"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"pdf"`

	RateLimit struct {
		PerSecond float64 `yaml:"perSecond"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`
}

// Load baca .env (kalau ada), lalu config.yaml, lalu override dari environment.
// A missing YAML file is not an error: everything can come from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("FRONTEND_URL", &c.Server.FrontendURL)
	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("OPENAI_API_KEY", &c.AI.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.OpenAI.BaseURL)
	str("GEMINI_API_KEY", &c.AI.Gemini.APIKey)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.BucketName)
	str("MINIO_REGION", &c.Minio.Region)
	str("CHROME_BIN", &c.PDF.ChromeBin)
	str("CHROME_DEBUGGER_URL", &c.PDF.DebuggerURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		c.Minio.UseSSL = b
	}
	if v := os.Getenv("PDF_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PDF_ENABLED: %w", err)
		}
		c.PDF.Enabled = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:5173"
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = 50
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	// analysis calls can take minutes
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "token"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 16384
	}
	if c.Ingest.MaxFileBytes == 0 {
		c.Ingest.MaxFileBytes = 10 << 20
	}
	if c.PDF.Timeout == 0 {
		c.PDF.Timeout = time.Minute
	}
	if c.RateLimit.PerSecond == 0 {
		c.RateLimit.PerSecond = 2
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string
	switch c.Database.Driver {
	case "postgres":
		if c.PostgresDSN() == "" {
			problems = append(problems, "database url is required (DATABASE_URL)")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown database driver %q", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "jwt secret is required (JWT_SECRET)")
	}
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for provider openai")
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required for provider gemini")
		}
	case "offline":
	default:
		problems = append(problems, fmt.Sprintf("unknown ai provider %q", c.AI.Provider))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MinioEnabled is true when an endpoint and bucket are configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}

// Helper untuk build DSN Postgres. DATABASE_URL wins over the discrete fields.
func (c *Config) PostgresDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	if c.Database.Host == "" {
		return ""
	}
	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
