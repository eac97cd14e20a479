package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

const tableName = "interview_sessions"

// SQL stores records in a relational database. The full record is kept as a
// JSON payload next to the columns used for filtering and ordering.
type SQL struct {
	db       *sql.DB
	backend  string
	capacity int
	opts     options
}

// NewSQL opens the database, verifies the connection and creates the table.
func NewSQL(ctx context.Context, backend, dsn string, capacity int, opts ...Option) (*SQL, error) {
	var driverName string
	switch backend {
	case BackendSQLite:
		driverName = "sqlite"
		if dsn == "" {
			dsn = "file:sessions.db"
		}
	case BackendMySQL:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
	case BackendPostgres:
		// host=localhost port=5432 user=postgres dbname=interviews
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported SQL backend: %s", backend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	if backend == BackendSQLite {
		// One connection avoids "database is locked" and keeps :memory: coherent
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s store: %w", backend, err)
	}

	if _, err := db.ExecContext(ctx, createTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", tableName, err)
	}

	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SQL{db: db, backend: backend, capacity: capacity, opts: buildOptions(opts)}, nil
}

func createTableQuery(backend string) string {
	switch backend {
	case BackendMySQL:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			id VARCHAR(36) NOT NULL UNIQUE,
			created_at VARCHAR(40) NOT NULL,
			session_type VARCHAR(32) NOT NULL,
			payload JSON NOT NULL
		)`
	case BackendPostgres:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			session_type TEXT NOT NULL,
			payload TEXT NOT NULL
		)`
	default: // SQLite
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			session_type TEXT NOT NULL,
			payload TEXT NOT NULL
		)`
	}
}

// ph returns the n-th (1-based) parameter placeholder for the backend.
func (s *SQL) ph(n int) string {
	if s.backend == BackendPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQL) Append(ctx context.Context, rec Record) (Record, error) {
	rec, err := s.opts.prepare(rec)
	if err != nil {
		return Record{}, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf(`INSERT INTO %s (id, created_at, session_type, payload) VALUES (%s, %s, %s, %s)`,
		tableName, s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	if _, err := tx.ExecContext(ctx, insert, rec.ID, rec.CreatedAt, rec.SessionType, string(payload)); err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	// Evict everything older than the newest capacity rows.
	var cutoff int64
	row := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT seq FROM %s ORDER BY seq DESC LIMIT 1 OFFSET %d`,
		tableName, s.capacity-1))
	switch err := row.Scan(&cutoff); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Record{}, fmt.Errorf("find eviction cutoff: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE seq < %s`, tableName, s.ph(1)), cutoff); err != nil {
			return Record{}, fmt.Errorf("evict old records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit append: %w", err)
	}
	return rec, nil
}

func (s *SQL) Query(ctx context.Context, f Filter) ([]Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if f.SessionType == "" {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`SELECT payload FROM %s ORDER BY seq DESC LIMIT %d`,
			tableName, f.limit()))
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`SELECT payload FROM %s WHERE session_type = %s ORDER BY seq DESC LIMIT %d`,
			tableName, s.ph(1), f.limit()), f.SessionType)
	}
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQL) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, tableName, s.ph(1)), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}
