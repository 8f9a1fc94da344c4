package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração do processo carregada do ambiente.
// Preferências do usuário (capturePath, toastTimeout...) ficam no settings.Store.
type Config struct {
	BindAddr             string
	Port                 int
	LogLevel             string
	SettingsBackend      string
	SettingsFile         string
	DBDSN                string
	RedisURL             string
	JWTAccessTTL         time.Duration
	JWTRefreshTTL        time.Duration
	JWTSecret            string
	AdminPasswordHash    string
	OperatorPasswordHash string
	AllowOrigins         []string
	RateLimitPublic      RateLimitConfig
	RateLimitAuth        RateLimitConfig
	RateLimitLogin       RateLimitConfig
	Argon2               Argon2Config
	ImgurAPIURL          string
	FFmpegPath           string
	ToastFade            time.Duration
	Display              DisplayConfig
	SlackWebhookURL      string
	Storage              StorageConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Argon2Config define o custo dos hashes gerados por `ishare hashpass`.
type Argon2Config struct {
	MemoryKiB   int
	Iterations  int
	Parallelism int
}

// DisplayConfig é usado quando nenhum monitor ativo é detectado (modo headless).
type DisplayConfig struct {
	Width  int
	Height int
}

// StorageConfig descreve o host S3 compatível usado quando uploadType=s3.
type StorageConfig struct {
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Enabled indica se há credenciais mínimas para o host S3.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.S3Endpoint) != "" && strings.TrimSpace(s.S3Bucket) != ""
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	DefaultImgurAPIURL = "https://api.imgur.com/3/upload"
)

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	return load(true)
}

// LoadClient é usado pela CLI: JWT_SECRET só é exigido por quem emite tokens.
func LoadClient() (*Config, error) {
	return load(false)
}

func load(requireSecret bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "7420")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.BindAddr = strings.TrimSpace(getEnv("BIND_ADDR", "127.0.0.1"))

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))

	cfg.SettingsBackend = strings.ToLower(strings.TrimSpace(getEnv("SETTINGS_BACKEND", BackendFile)))
	switch cfg.SettingsBackend {
	case BackendFile, BackendPostgres, BackendMemory:
	default:
		return nil, errors.New("SETTINGS_BACKEND deve ser file, postgres ou memory")
	}

	cfg.SettingsFile = strings.TrimSpace(getEnv("SETTINGS_FILE", ""))
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = defaultSettingsFile()
	}

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.SettingsBackend == BackendPostgres && cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório com SETTINGS_BACKEND=postgres")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if requireSecret && len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	cfg.AdminPasswordHash = strings.TrimSpace(getEnv("ADMIN_PASSWORD_HASH", ""))
	cfg.OperatorPasswordHash = strings.TrimSpace(getEnv("OPERATOR_PASSWORD_HASH", ""))

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 2, Burst: 5}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	loginPerMinute, err := parseIntEnv("LOGIN_ATTEMPTS_PER_MINUTE", 5)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: float64(loginPerMinute) / 60, Burst: loginPerMinute}

	memory, err := parseIntEnv("ARGON2_MEMORY_KIB", 64*1024)
	if err != nil {
		return nil, err
	}
	iterations, err := parseIntEnv("ARGON2_ITERATIONS", 3)
	if err != nil {
		return nil, err
	}
	parallelism, err := parseIntEnv("ARGON2_PARALLELISM", 1)
	if err != nil {
		return nil, err
	}
	if parallelism > 255 {
		return nil, errors.New("ARGON2_PARALLELISM deve ser até 255")
	}
	cfg.Argon2 = Argon2Config{MemoryKiB: memory, Iterations: iterations, Parallelism: parallelism}

	cfg.ImgurAPIURL = strings.TrimSpace(getEnv("IMGUR_API_URL", DefaultImgurAPIURL))
	if cfg.ImgurAPIURL == "" {
		cfg.ImgurAPIURL = DefaultImgurAPIURL
	}

	cfg.FFmpegPath = strings.TrimSpace(getEnv("FFMPEG_PATH", "ffmpeg"))
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}

	fade, err := parseDurationEnv("TOAST_FADE", 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.ToastFade = fade

	width, err := parseIntEnv("DISPLAY_WIDTH", 1920)
	if err != nil {
		return nil, err
	}
	height, err := parseIntEnv("DISPLAY_HEIGHT", 1080)
	if err != nil {
		return nil, err
	}
	cfg.Display = DisplayConfig{Width: width, Height: height}

	cfg.SlackWebhookURL = strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", ""))

	cfg.Storage = StorageConfig{
		S3Endpoint:  strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		S3Region:    strings.TrimSpace(getEnv("S3_REGION", "auto")),
		S3Bucket:    strings.TrimSpace(getEnv("S3_BUCKET", "")),
		S3AccessKey: strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		S3SecretKey: strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
		S3PublicURL: strings.TrimSpace(getEnv("S3_PUBLIC_URL", "")),
	}

	return cfg, nil
}

func defaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "ishare-settings.yaml")
	}
	return filepath.Join(dir, "ishare", "settings.yaml")
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseIntEnv(key string, def int) (int, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return n, nil
}
