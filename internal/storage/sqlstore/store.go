// Package sqlstore persists the ledger in SQLite or PostgreSQL.
//
// Player records are kept in their fixed binary layout alongside a
// zero-padded score column used only for ordering. uint64 amounts are stored
// as decimal text so the full range survives BIGINT columns.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Config selects the driver and connection string
type Config struct {
	// Driver is DriverSQLite or DriverPostgres
	Driver string
	// DSN is a file path for SQLite or a connection URL for PostgreSQL
	DSN string
}

// Store is a database/sql implementation of the storage interface
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open connects, pings and applies the schema
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d := dialect{driver: cfg.Driver}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}

	switch cfg.Driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.sqlDriver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// One writer at a time; units of work queue on the pool
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.applySchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	content, err := schemaFS.ReadFile("schema/" + s.dialect.driver + ".sql")
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(stmt), err)
		}
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Atomically runs fn inside a database transaction.
// It commits if fn returns nil, otherwise it rolls back.
func (s *Store) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&sqlTx{tx: tx, d: s.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Player reads

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return getPlayer(ctx, s.db, s.dialect, id, "")
}

func (s *Store) TopPlayers(ctx context.Context, limit int) ([]*model.PlayerRecord, error) {
	if limit <= 0 {
		return []*model.PlayerRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT record FROM players ORDER BY score_key DESC, player_id ASC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top players: %w", err)
	}
	defer rows.Close()

	recs := []*model.PlayerRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := model.DecodePlayerRecord(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func getPlayer(ctx context.Context, q querier, d dialect, id model.PlayerID, suffix string) (*model.PlayerRecord, error) {
	var data []byte
	err := q.QueryRowContext(ctx, d.rebind(
		`SELECT record FROM players WHERE player_id = ?`+suffix),
		string(id),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	return model.DecodePlayerRecord(data)
}

// Token account reads

func (s *Store) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	return getAccount(ctx, s.db, s.dialect, id, "")
}

func getAccount(ctx context.Context, q querier, d dialect, id model.AccountID, suffix string) (*model.TokenAccount, error) {
	var (
		owner, balance string
		frozen         bool
		createdAt      int64
	)
	err := q.QueryRowContext(ctx, d.rebind(
		`SELECT owner, balance, frozen, created_at FROM accounts WHERE account_id = ?`+suffix),
		string(id),
	).Scan(&owner, &balance, &frozen, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	amount, err := parseUint(balance)
	if err != nil {
		return nil, err
	}
	return &model.TokenAccount{
		ID:        id,
		Owner:     model.Authority(owner),
		Balance:   amount,
		Frozen:    frozen,
		CreatedAt: fromNanos(createdAt),
	}, nil
}

func (s *Store) ListTransfers(ctx context.Context, id model.AccountID, limit int) ([]*model.TransferReceipt, error) {
	if limit <= 0 {
		return []*model.TransferReceipt{}, nil
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT transfer_id, from_account, to_account, authority, amount, memo, created_at
		   FROM transfers
		  WHERE from_account = ? OR to_account = ?
		  ORDER BY seq DESC
		  LIMIT ?`),
		string(id), string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	receipts := []*model.TransferReceipt{}
	for rows.Next() {
		var (
			r                           model.TransferReceipt
			from, to, authority, amount string
			createdAt                   int64
		)
		if err := rows.Scan(&r.ID, &from, &to, &authority, &amount, &r.Memo, &createdAt); err != nil {
			return nil, err
		}
		if r.Amount, err = parseUint(amount); err != nil {
			return nil, err
		}
		r.From = model.AccountID(from)
		r.To = model.AccountID(to)
		r.Authority = model.Authority(authority)
		r.CreatedAt = fromNanos(createdAt)
		receipts = append(receipts, &r)
	}
	return receipts, rows.Err()
}

// Signer operations

func (s *Store) SaveSigner(ctx context.Context, signer *model.Signer) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO signers (signer_id, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (signer_id) DO UPDATE SET
		   username = excluded.username,
		   password_hash = excluded.password_hash`),
		string(signer.ID), signer.Username, signer.PasswordHash, toNanos(signer.CreatedAt),
	)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("save signer: %w", err)
	}
	return nil
}

func (s *Store) GetSigner(ctx context.Context, id model.Authority) (*model.Signer, error) {
	return s.getSigner(ctx, `signer_id = ?`, string(id))
}

func (s *Store) GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error) {
	return s.getSigner(ctx, `username = ?`, username)
}

func (s *Store) getSigner(ctx context.Context, where string, arg string) (*model.Signer, error) {
	var (
		signer    model.Signer
		id        string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT signer_id, username, password_hash, created_at FROM signers WHERE `+where),
		arg,
	).Scan(&id, &signer.Username, &signer.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSignerNotFound
		}
		return nil, fmt.Errorf("get signer: %w", err)
	}
	signer.ID = model.Authority(id)
	signer.CreatedAt = fromNanos(createdAt)
	return &signer, nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v).UTC()
}
