package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=emlak port=5432 sslmode=disable"

type Config struct {
	HTTPPort      string
	DatabaseDSN   string
	JWTSecret     string
	JWTTTL        time.Duration
	CORSOrigins   string
	PublicBaseURL string // göreli medya yollarını mutlak URL'ye çevirmek için
	LogFormat     string

	// İlan filtreleri: "lenient" hatalı sayıyı yok sayar, "strict" reddeder
	FilterNumericMode string
	// Onaylanan ilanda danışman yoksa atanacak kullanıcı (0 ise ilk danışman)
	DefaultAdvisorID uint

	// Yükleme
	UploadDriver string // local | s3
	UploadPath   string
	UploadMaxMB  int
	AwsRegion    string
	AwsAccessKey string
	AwsSecretKey string
	AwsS3Bucket  string
	S3PublicURL  string

	// Bildirim kuyruğu
	NotifyEnabled    bool
	RedisAddr        string
	RedisPassword    string
	AdminNotifyEmail string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string

	LoginRatePerMinute int
}

// Load reads configuration from the environment (.env is honored when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		FilterNumericMode: strings.ToLower(getEnv("FILTER_NUMERIC_MODE", "lenient")),
		UploadDriver:      strings.ToLower(getEnv("UPLOAD_DRIVER", "local")),
		UploadPath:        getEnv("UPLOAD_PATH", "./uploads"),
		AwsRegion:         getEnv("AWS_REGION", ""),
		AwsAccessKey:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AwsSecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AwsS3Bucket:       getEnv("AWS_S3_BUCKET", ""),
		S3PublicURL:       strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		AdminNotifyEmail:  getEnv("ADMIN_NOTIFY_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:          getEnv("SMTP_FROM_ADDRESS", "noreply@emlak.local"),
	}

	var err error

	jwtTTLHours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || jwtTTLHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS: %q", os.Getenv("JWT_TTL_HOURS"))
	}
	cfg.JWTTTL = time.Duration(jwtTTLHours) * time.Hour

	defaultAdvisor, err := strconv.ParseUint(getEnv("DEFAULT_ADVISOR_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_ADVISOR_ID: %w", err)
	}
	cfg.DefaultAdvisorID = uint(defaultAdvisor)

	cfg.UploadMaxMB, err = strconv.Atoi(getEnv("UPLOAD_MAX_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_MB: %w", err)
	}

	cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.NotifyEnabled, err = strconv.ParseBool(getEnv("NOTIFY_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_ENABLED: %w", err)
	}

	cfg.LoginRatePerMinute, err = strconv.Atoi(getEnv("LOGIN_RATE_PER_MINUTE", "10"))
	if err != nil || cfg.LoginRatePerMinute <= 0 {
		return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %q", os.Getenv("LOGIN_RATE_PER_MINUTE"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Production güvenlik kontrolleri
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment değişkeni tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET en az 32 karakter olmalıdır")
	}
	switch c.FilterNumericMode {
	case "lenient", "strict":
	default:
		return fmt.Errorf("FILTER_NUMERIC_MODE 'lenient' veya 'strict' olmalı, %q geldi", c.FilterNumericMode)
	}
	switch c.UploadDriver {
	case "local":
	case "s3":
		if c.AwsS3Bucket == "" || c.AwsRegion == "" {
			return fmt.Errorf("UPLOAD_DRIVER=s3 için AWS_S3_BUCKET ve AWS_REGION zorunlu")
		}
	default:
		return fmt.Errorf("UPLOAD_DRIVER 'local' veya 's3' olmalı, %q geldi", c.UploadDriver)
	}
	return nil
}

// UsesDefaultDSN warns callers that the development DSN is active.
func (c *Config) UsesDefaultDSN() bool {
	return c.DatabaseDSN == defaultDSN
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
