package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/urbanbyte/ishare/internal/db"
)

// Querier é o subconjunto de *pgxpool.Pool usado pelo backend.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresBackend persiste cada chave como uma linha de ishare_settings.
type PostgresBackend struct {
	db Querier
}

func NewPostgresBackend(db Querier) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema cria a tabela caso ainda não exista.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS ishare_settings (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `
	_, err := p.db.Exec(ctx, ddl)
	return err
}

func (p *PostgresBackend) Load(ctx context.Context) (map[Key]string, error) {
	const query = `SELECT key, value FROM ishare_settings`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[Key]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[Key(key)] = value
	}
	return values, rows.Err()
}

const upsertSetting = `
        INSERT INTO ishare_settings (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `

func (p *PostgresBackend) Save(ctx context.Context, key Key, value string) error {
	_, err := p.db.Exec(ctx, upsertSetting, string(key), value)
	return err
}

// SaveBatch grava todas as chaves numa única transação quando o Querier
// permite abrir transações (pool real); caso contrário grava uma a uma.
func (p *PostgresBackend) SaveBatch(ctx context.Context, values map[Key]string) error {
	starter, ok := p.db.(db.TxStarter)
	if !ok {
		for key, value := range values {
			if err := p.Save(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	}

	return db.WithTx(ctx, starter, func(ctx context.Context, tx pgx.Tx) error {
		for key, value := range values {
			if _, err := tx.Exec(ctx, upsertSetting, string(key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *PostgresBackend) Delete(ctx context.Context, key Key) error {
	const query = `DELETE FROM ishare_settings WHERE key = $1`
	_, err := p.db.Exec(ctx, query, string(key))
	return err
}
