package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	DatabasePath   string
	DatabaseURL    string
	UploadDir      string
	UploadURLPath  string
	UploadBucket   string
	UploadMaxBytes int64
	SiteBaseURL    string
	SessionSecret  string
	RedisAddr      string
	PageCacheTTL   time.Duration
	RevalidateURL  string
}

// UsesPostgres reports whether the record store should be the hosted Postgres one.
func (c AppConfig) UsesPostgres() bool {
	url := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOr("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	uploadURLPath := envOr("UPLOAD_URL_PATH", "/uploads")
	if !strings.HasPrefix(uploadURLPath, "/") {
		uploadURLPath = "/" + uploadURLPath
	}
	uploadURLPath = strings.TrimRight(uploadURLPath, "/")
	if uploadURLPath == "" {
		uploadURLPath = "/uploads"
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		GinMode:        envOr("GIN_MODE", "release"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "json"),
		DatabasePath:   envOr("DATABASE_PATH", "blogdesk.db"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		UploadDir:      envOr("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:  uploadURLPath,
		UploadBucket:   strings.Trim(envOr("UPLOAD_BUCKET", "IMG"), "/"),
		UploadMaxBytes: envInt64("UPLOAD_MAX_BYTES", 10<<20),
		SiteBaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("SITE_BASE_URL")), "/"),
		SessionSecret:  envOr("SESSION_SECRET", "blogdesk-dev-secret"),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		PageCacheTTL:   envDuration("PAGE_CACHE_TTL", 0),
		RevalidateURL:  strings.TrimSpace(os.Getenv("REVALIDATE_URL")),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// 无法解析的数值配置回退到默认值，而不是阻止服务启动。
func envInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
