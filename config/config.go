package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config/config.yml"

type Config struct {
	HotelPrices HotelPricesConfig `yaml:"hotelprices"`
	Source      SourceConfig      `yaml:"source"`
	Storage     StorageConfig     `yaml:"storage"`
	Writer      WriterConfig      `yaml:"writer"`
	Alert       AlertConfig       `yaml:"alert"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type HotelPricesConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// SourceConfig describes the booking page and how room rows are located in it.
type SourceConfig struct {
	Hotel           string        `yaml:"hotel"`
	URLTemplate     string        `yaml:"url_template"`
	UserAgent       string        `yaml:"user_agent"`
	RowSelector     string        `yaml:"row_selector"`
	HeadingSelector string        `yaml:"heading_selector"`
	PriceSelector   string        `yaml:"price_selector"`
	SettleWait      time.Duration `yaml:"settle_wait"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestInterval time.Duration `yaml:"request_interval"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type WriterConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Compression  string `yaml:"compression"`
	RowGroupSize int64  `yaml:"row_group_size"`
	FileName     string `yaml:"file_name"`
}

type AlertConfig struct {
	WebhookURL             string        `yaml:"webhook_url"`
	Recipients             []string      `yaml:"recipients"`
	MembershipDiscountRoom string        `yaml:"membership_discount_room"`
	MembershipDiscountRate float64       `yaml:"membership_discount_rate"`
	DashboardURL           string        `yaml:"dashboard_url"`
	Timeout                time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads the YAML file at path on top of Default(). An empty
// path, or the default path when it does not exist, yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	path = resolveEnvSpecificPath(path, DefaultConfigPath, environmentConfigPaths)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && isDefaultPath(path):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnv(config)
	config.Storage.S3.Region = strings.TrimSpace(config.Storage.S3.Region)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func isDefaultPath(path string) bool {
	if path == DefaultConfigPath {
		return true
	}
	for _, p := range environmentConfigPaths {
		if p == path {
			return true
		}
	}
	return false
}

func applyEnv(config *Config) {
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Storage.S3.Region = strings.TrimSpace(v)
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		config.Storage.S3.Endpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("PRICE_ALERT_WEBHOOK_URL"); v != "" {
		config.Alert.WebhookURL = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.HotelPrices.Name == "" {
		return fmt.Errorf("hotelprices.name is required")
	}

	if cfg.Source.Hotel == "" {
		return fmt.Errorf("source.hotel is required")
	}
	if !strings.Contains(cfg.Source.URLTemplate, "{start_date}") || !strings.Contains(cfg.Source.URLTemplate, "{stop_date}") {
		return fmt.Errorf("source.url_template must contain {start_date} and {stop_date}")
	}
	if cfg.Source.RowSelector == "" || cfg.Source.HeadingSelector == "" || cfg.Source.PriceSelector == "" {
		return fmt.Errorf("source selectors must not be empty")
	}
	if cfg.Source.SettleWait < 0 {
		return fmt.Errorf("source.settle_wait must not be negative")
	}
	if cfg.Source.RequestInterval < 0 {
		return fmt.Errorf("source.request_interval must not be negative")
	}

	if cfg.Alert.MembershipDiscountRate < 0 || cfg.Alert.MembershipDiscountRate >= 1 {
		return fmt.Errorf("alert.membership_discount_rate must be in [0, 1)")
	}

	switch strings.ToUpper(cfg.Writer.Parquet.Compression) {
	case "SNAPPY", "GZIP", "UNCOMPRESSED":
	default:
		return fmt.Errorf("writer.parquet.compression '%s' is not supported", cfg.Writer.Parquet.Compression)
	}
	if cfg.Writer.Parquet.FileName == "" {
		return fmt.Errorf("writer.parquet.file_name is required")
	}

	switch cfg.Logging.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("logging.format '%s' is invalid", cfg.Logging.Format)
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when CloudWatch is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// IsValidS3Bucket reports whether name is an acceptable S3 bucket name.
func IsValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
