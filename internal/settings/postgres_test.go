package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type stubQuerier struct {
	rows  [][2]string
	execs []string
	args  [][]any
}

func (s *stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return &stubRows{data: s.rows, idx: -1}, nil
}

func (s *stubQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, sql)
	s.args = append(s.args, args)
	return pgconn.CommandTag{}, nil
}

type stubRows struct {
	data [][2]string
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *stubRows) Scan(dest ...any) error {
	if len(dest) != 2 {
		return errors.New("expected two destinations")
	}
	for i := range dest {
		ptr, ok := dest[i].(*string)
		if !ok {
			return errors.New("destination must be *string")
		}
		*ptr = r.data[r.idx][i]
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) {
	return []any{r.data[r.idx][0], r.data[r.idx][1]}, nil
}

func TestPostgresBackendLoadAndWrite(t *testing.T) {
	ctx := context.Background()
	db := &stubQuerier{rows: [][2]string{{"toastTimeout", "4"}, {"uploadType", "s3"}}}
	backend := NewPostgresBackend(db)

	store, err := Open(ctx, backend, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Int(ToastTimeout) != 4 || store.String(UploadType) != UploadS3 {
		t.Fatalf("expected values loaded from rows")
	}

	if err := store.Set(ctx, SaveToDisk, "false"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.ResetToDefault(ctx, ToastTimeout); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if len(db.execs) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(db.execs))
	}
	if !strings.Contains(db.execs[0], "ON CONFLICT (key)") || db.args[0][0] != "saveToDisk" || db.args[0][1] != "false" {
		t.Fatalf("unexpected upsert %q %v", db.execs[0], db.args[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(db.execs[1]), "DELETE") || db.args[1][0] != "toastTimeout" {
		t.Fatalf("unexpected delete %q %v", db.execs[1], db.args[1])
	}
}

type stubTx struct {
	pgx.Tx
	execs      int
	committed  bool
	rolledBack bool
}

func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs++
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type txQuerier struct {
	stubQuerier
	tx *stubTx
}

func (q *txQuerier) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return q.tx, nil
}

func TestPostgresImportUsesTransaction(t *testing.T) {
	ctx := context.Background()
	q := &txQuerier{tx: &stubTx{}}
	store, err := Open(ctx, NewPostgresBackend(q), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	n, err := store.Import(ctx, []byte(`{"toastTimeout":"7","saveToDisk":"false"}`), FormatJSON)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 || q.tx.execs != 2 || !q.tx.committed || q.tx.rolledBack {
		t.Fatalf("expected both keys in one committed transaction: n=%d tx=%+v", n, q.tx)
	}
	if len(q.execs) != 0 {
		t.Fatalf("no statement should bypass the transaction")
	}
	if store.Int(ToastTimeout) != 7 || store.Bool(SaveToDisk) {
		t.Fatalf("store must reflect imported values")
	}
}
