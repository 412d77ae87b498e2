package featureconfig

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakePgRow struct {
	data []byte
	err  error
}

func (r fakePgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.data
	return nil
}

type fakePgExecutor struct {
	row     fakePgRow
	execErr error

	execSQL  string
	execArgs []any
}

func (f *fakePgExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func (f *fakePgExecutor) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = arguments
	return pgconn.CommandTag{}, f.execErr
}

func TestPostgresStoreLoadDecodesStoredPayload(t *testing.T) {
	data, err := EncodeDocument(testDocument())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	store := &PostgresStore{db: &fakePgExecutor{row: fakePgRow{data: data}}}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != testDocument().Version {
		t.Fatalf("expected version %d, got %d", testDocument().Version, got.Version)
	}
}

func TestPostgresStoreLoadEmptyTable(t *testing.T) {
	store := &PostgresStore{db: &fakePgExecutor{row: fakePgRow{err: pgx.ErrNoRows}}}
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestPostgresStoreLoadCorruptedPayload(t *testing.T) {
	store := &PostgresStore{db: &fakePgExecutor{row: fakePgRow{data: []byte("{broken")}}}
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument for corrupted payload, got %v", err)
	}
}

func TestPostgresStoreLoadTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	store := &PostgresStore{db: &fakePgExecutor{row: fakePgRow{err: boom}}}

	_, err := store.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if errors.Is(err, ErrNoDocument) {
		t.Fatalf("transport error must not read as a missing document")
	}
}

func TestPostgresStoreSaveUpsertsPayload(t *testing.T) {
	exec := &fakePgExecutor{}
	store := &PostgresStore{db: exec}

	if err := store.Save(context.Background(), testDocument()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(exec.execSQL, "ON CONFLICT (id) DO UPDATE") {
		t.Fatalf("expected upsert statement, got %q", exec.execSQL)
	}
	if len(exec.execArgs) != 1 {
		t.Fatalf("expected one payload arg, got %d", len(exec.execArgs))
	}
	doc, err := DecodeDocument(exec.execArgs[0].([]byte))
	if err != nil {
		t.Fatalf("decode stored payload: %v", err)
	}
	if doc.Version != testDocument().Version {
		t.Fatalf("expected version %d, got %d", testDocument().Version, doc.Version)
	}
}

func TestPostgresStoreSaveExecError(t *testing.T) {
	boom := errors.New("deadlock detected")
	store := &PostgresStore{db: &fakePgExecutor{execErr: boom}}
	if err := store.Save(context.Background(), testDocument()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}
