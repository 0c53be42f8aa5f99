package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "discussion-grader/pkg/errors"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// MaxPageSize is the largest per_page Canvas honours. Larger values are
// clamped by the server, which would end pagination after the first page.
const MaxPageSize = 100

type Config struct {
	App     AppConfig     `yaml:"app"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Grader  GraderConfig  `yaml:"grader"`
	Run     RunConfig     `yaml:"run"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type CanvasConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	PageSize          int           `yaml:"page_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type GraderConfig struct {
	Executable string        `yaml:"executable"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RunConfig struct {
	// DuplicatePolicy picks the entry to grade when a student posted more
	// than once: first, last or longest.
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type RedisConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	ReportQueue string `yaml:"report_queue"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "discussion-grader",
			Version: "dev",
			Env:     "development",
		},
		Canvas: CanvasConfig{
			Timeout:  60 * time.Second,
			PageSize: MaxPageSize,
		},
		Grader: GraderConfig{
			Timeout: 30 * time.Second,
		},
		Run: RunConfig{
			DuplicatePolicy: "first",
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			ReportQueue: "grading:reports",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration in increasing precedence: defaults, the YAML
// file, then CANVAS_URL / CANVAS_API_KEY (a .env file in the working
// directory is loaded into the environment first).
//
// path falls back to CONFIG_PATH and then config.yaml. Only an explicitly
// requested file has to exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CANVAS_URL"); v != "" {
		c.Canvas.BaseURL = v
	}
	if v := os.Getenv("CANVAS_API_KEY"); v != "" {
		c.Canvas.APIKey = v
	}
}

// Validate checks the settings every grading run needs before it talks to
// Canvas.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Canvas.BaseURL) == "" || strings.TrimSpace(c.Canvas.APIKey) == "" {
		return apperrors.ErrMissingCredentials
	}
	if c.Canvas.PageSize <= 0 || c.Canvas.PageSize > MaxPageSize {
		return apperrors.ValidationError{
			Field:   "canvas.page_size",
			Value:   c.Canvas.PageSize,
			Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize),
		}
	}
	if c.Grader.Timeout <= 0 {
		return apperrors.ValidationError{Field: "grader.timeout", Value: c.Grader.Timeout, Message: "must be positive"}
	}
	switch c.Run.DuplicatePolicy {
	case "first", "last", "longest":
	default:
		return apperrors.ValidationError{Field: "run.duplicate_policy", Value: c.Run.DuplicatePolicy, Message: "must be one of first, last, longest"}
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
