package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"s3transfer/internal/apperr"
)

const (
	defaultChunkSize  = 8 * 1024 * 1024
	defaultMaxRetries = 3
)

type Config struct {
	ApiURL            string
	AccessKey         string
	SecretKey         string
	Region            string
	SourceBucket      string
	DestinationBucket string

	MongoURL        string
	MongoDBName     string
	MongoCollection string

	DownloadPath string
	MaxRetries   int
	ChunkSize    int64

	HTTPAddr  string
	APIPrefix string
	Version   string
	LogFile   string
	LogLevel  string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	maxRetries, err := getEnvInt("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, err
	}
	chunkSize, err := getEnvInt("CHUNK_SIZE", defaultChunkSize)
	if err != nil {
		return nil, err
	}

	config := &Config{
		ApiURL:            getEnv("API_URL", ""),
		AccessKey:         getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Region:            getEnv("AWS_REGION", "us-east-1"),
		SourceBucket:      getEnv("SOURCE_BUCKET", ""),
		DestinationBucket: getEnv("DESTINATION_BUCKET", ""),
		MongoURL:          getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGODB_DB_NAME", "s3_files"),
		MongoCollection:   getEnv("MONGODB_COLLECTION", "file_records"),
		DownloadPath:      getEnv("DOWNLOAD_PATH", "./downloads"),
		MaxRetries:        maxRetries,
		ChunkSize:         int64(chunkSize),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		APIPrefix:         getEnv("API_PREFIX", "/api/v1"),
		Version:           getEnv("APP_VERSION", "1.0.0"),
		LogFile:           getEnv("LOG_FILE", "s3_transfer.log"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	return config, nil
}

// ValidateTransfer checks the settings the standalone transfer path needs.
func (c *Config) ValidateTransfer() error {
	return requireSet(map[string]string{
		"AWS_ACCESS_KEY_ID":     c.AccessKey,
		"AWS_SECRET_ACCESS_KEY": c.SecretKey,
		"AWS_REGION":            c.Region,
		"SOURCE_BUCKET":         c.SourceBucket,
		"DESTINATION_BUCKET":    c.DestinationBucket,
	}, "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION", "SOURCE_BUCKET", "DESTINATION_BUCKET")
}

// ValidateServe checks the settings the HTTP API and download path need.
func (c *Config) ValidateServe() error {
	if err := requireSet(map[string]string{
		"SOURCE_BUCKET":   c.SourceBucket,
		"MONGODB_URL":     c.MongoURL,
		"MONGODB_DB_NAME": c.MongoDBName,
		"DOWNLOAD_PATH":   c.DownloadPath,
	}, "SOURCE_BUCKET", "MONGODB_URL", "MONGODB_DB_NAME", "DOWNLOAD_PATH"); err != nil {
		return err
	}
	if c.MaxRetries < 1 {
		return apperr.NewValidationError("MAX_RETRIES", "must be at least 1, got %d", c.MaxRetries)
	}
	if c.ChunkSize < 5*1024*1024 {
		return apperr.NewValidationError("CHUNK_SIZE", "must be at least 5 MiB, got %d", c.ChunkSize)
	}
	return nil
}

func requireSet(values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{
			Message: "missing required environment variables: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperr.NewValidationError(key, "must be an integer, got %q", value)
	}
	return n, nil
}
