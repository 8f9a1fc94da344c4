// Package bootstrap monta as dependências compartilhadas pelo daemon e pela CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/auth"
	"github.com/urbanbyte/ishare/internal/config"
	"github.com/urbanbyte/ishare/internal/db"
	"github.com/urbanbyte/ishare/internal/history"
	"github.com/urbanbyte/ishare/internal/notify"
	"github.com/urbanbyte/ishare/internal/settings"
	"github.com/urbanbyte/ishare/internal/upload"
)

// Resources guarda conexões abertas; Close libera todas.
type Resources struct {
	Settings *settings.Store
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	History  history.Recorder
	// SettingsLocation descreve onde as preferências são persistidas.
	SettingsLocation string
}

func (r *Resources) Close() {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
}

// Open escolhe o backend de preferências e conecta ao redis quando configurado.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Resources, error) {
	res := &Resources{}

	backend, err := res.settingsBackend(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, err
	}

	store, err := settings.Open(ctx, backend, logger.With().Str("component", "settings").Logger())
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Settings = store

	res.History = history.NewMemoryRecorder()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("redis parse: %w", err)
		}
		res.Redis = redis.NewClient(opts)
		res.History = history.NewRedisRecorder(res.Redis, history.DefaultKey)
	}

	return res, nil
}

func (r *Resources) settingsBackend(ctx context.Context, cfg *config.Config) (settings.Backend, error) {
	switch cfg.SettingsBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		r.Pool = pool
		r.SettingsLocation = "postgres (ishare_settings)"
		backend := settings.NewPostgresBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("db schema: %w", err)
		}
		return backend, nil
	case config.BackendMemory:
		r.SettingsLocation = "memória"
		return settings.NewMemoryBackend(), nil
	default:
		backend := settings.NewFileBackend(cfg.SettingsFile)
		r.SettingsLocation = backend.Path()
		return backend, nil
	}
}

// Checks devolve as verificações usadas pelo /ready.
func (r *Resources) Checks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{}
	if r.Pool != nil {
		checks["db"] = r.Pool.Ping
	}
	if r.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return r.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Hosts monta os uploaders disponíveis por valor de uploadType.
func Hosts(cfg *config.Config, reader settings.Reader) (map[string]upload.Uploader, error) {
	hosts := map[string]upload.Uploader{
		settings.UploadImgur: upload.NewImgurUploader(cfg.ImgurAPIURL, reader, &http.Client{Timeout: 60 * time.Second}),
		settings.UploadNone:  upload.NoopUploader{},
	}

	if cfg.Storage.Enabled() {
		s3, err := upload.NewS3Uploader(upload.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
			KeyPrefix:    "ishare",
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		hosts[settings.UploadS3] = s3
	}
	return hosts, nil
}

// Notifier combina log e Slack (quando há webhook).
func Notifier(cfg *config.Config, logger zerolog.Logger) notify.Notifier {
	multi := notify.Multi{notify.LogNotifier{Logger: logger.With().Str("component", "notify").Logger()}}
	if slack := notify.NewSlackNotifier(cfg.SlackWebhookURL); slack != nil {
		multi = append(multi, slack)
	}
	return multi
}

// PasswordHasher monta o hasher argon2id com o custo de ARGON2_*.
func PasswordHasher(cfg *config.Config) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.PasswordParams{
		MemoryKiB:   uint32(cfg.Argon2.MemoryKiB),
		Iterations:  uint32(cfg.Argon2.Iterations),
		Parallelism: uint8(cfg.Argon2.Parallelism),
	})
}

// CheckPasswordHashes avisa sobre hashes malformados ou com custo abaixo do configurado.
func CheckPasswordHashes(cfg *config.Config, logger zerolog.Logger) {
	hasher, err := PasswordHasher(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("ARGON2_* inválido; hashes não verificados")
		return
	}
	for name, hash := range map[string]string{
		"ADMIN_PASSWORD_HASH":    cfg.AdminPasswordHash,
		"OPERATOR_PASSWORD_HASH": cfg.OperatorPasswordHash,
	} {
		if hash == "" {
			continue
		}
		outdated, err := hasher.Outdated(hash)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("var", name).Msg("hash de senha malformado; login com essa credencial falhará")
		case outdated:
			logger.Warn().Str("var", name).Msg("hash com custo abaixo de ARGON2_*; gere outro com `ishare hashpass`")
		}
	}
}

// SetLevel aplica LOG_LEVEL ao zerolog global.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
