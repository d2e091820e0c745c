package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// JWT
	// JWTSecretはトークン署名鍵。未設定の場合は起動を中断する（フェイルファスト）。
	// プロセス生存中のローテーションは行わない。
	JWTSecret string
	JWTTTL    time.Duration

	// Password
	// BcryptCostはパスワードハッシュのコスト係数（2^cost回の反復）。
	BcryptCost int

	// Object Storage (MinIO / S3互換)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Upload
	UploadMaxBytes int64

	// Rate Limit
	RateLimitGeneral    int // API全般 req/min
	RateLimitCredential int // ログイン・登録 req/min

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// 特にJWT_SECRETの欠落は致命的エラーとして扱い、サーバーを起動させない。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.JWTTTL = getEnvDuration("JWT_TTL", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.MinioEndpoint = getEnvString("MINIO_ENDPOINT", "localhost:9000")
	cfg.MinioAccessKey = getEnvString("MINIO_ACCESS_KEY", "minioadmin")
	cfg.MinioSecretKey = getEnvString("MINIO_SECRET_KEY", "minioadmin")
	cfg.MinioBucket = getEnvString("MINIO_BUCKET", "rentman-images")
	cfg.MinioUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.UploadMaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", 5242880)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCredential = getEnvInt("RATE_LIMIT_CREDENTIAL", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:4200")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
