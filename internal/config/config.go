package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	JWT     JWTConfig
	Email   EmailConfig
	Storage StorageConfig
	Report  ReportConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// MongoDBConfig holds MongoDB connection details
type MongoDBConfig struct {
	URI        string
	Username   string
	Password   string
	Host       string
	Port       string
	Database   string
	AuthSource string // Database to authenticate against (default: admin)
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// EmailConfig holds SendGrid email configuration
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// StorageConfig holds report artifact storage configuration.
// When S3 credentials are present artifacts go to S3 (or an S3-compatible
// endpoint such as MinIO), otherwise to the local filesystem.
type StorageConfig struct {
	S3 S3Config

	LocalPath string
	BaseURL   string
}

// S3Config holds S3 connection details
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Custom endpoint for MinIO/S3-compatible services
}

// ReportConfig holds report pipeline tuning knobs
type ReportConfig struct {
	Workers   int           // background worker pool size
	QueueSize int           // pending task queue capacity
	StepDelay time.Duration // artificial pause between progress steps; 0 disables
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("HOST", "0.0.0.0"),
			Port: getEnv("PORT", "8086"),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Username:   getEnv("MONGODB_USERNAME", ""),
			Password:   getEnv("MONGODB_PASSWORD", ""),
			Host:       getEnv("MONGODB_HOST", ""),
			Port:       getEnv("MONGODB_PORT", "27017"),
			Database:   getEnv("MONGODB_DATABASE", "student_records"),
			AuthSource: getEnv("MONGODB_AUTH_SOURCE", "admin"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Email: EmailConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:  getEnv("SENDGRID_FROM_NAME", "Student Records"),
		},
		Storage: StorageConfig{
			S3: S3Config{
				Region:          getEnv("S3_REGION", "us-east-1"),
				Bucket:          getEnv("S3_BUCKET", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./reports"),
			BaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8086/storage"),
		},
		Report: ReportConfig{
			Workers:   getEnvInt("REPORT_WORKERS", 4),
			QueueSize: getEnvInt("REPORT_QUEUE_SIZE", 64),
			StepDelay: getEnvDuration("REPORT_STEP_DELAY", 250*time.Millisecond),
		},
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates that required configuration values are present
func ValidateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if config.Report.Workers < 1 {
		return fmt.Errorf("REPORT_WORKERS must be at least 1")
	}
	if config.Report.QueueSize < 1 {
		return fmt.Errorf("REPORT_QUEUE_SIZE must be at least 1")
	}
	return nil
}

// Helper functions for environment variable access
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
