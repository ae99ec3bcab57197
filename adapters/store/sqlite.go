package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pradipta/geminichat/domain"
)

// SQLite implements domain.SessionStore over a local SQLite file. It exists
// for single-host deployments and for tests; the schema mirrors the Postgres
// adapter column for column.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dsn string) (*SQLite, error) {
	// foreign_keys is a per-connection setting; carry it in the DSN so every
	// pooled connection enforces the cascade, not just the first one.
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// In-memory SQLite gives every connection its own database. Pin a single
	// connection so the schema survives across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		data TEXT,
		created_at TEXT,
		updated_at TEXT,
		end_reason TEXT
	)`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	existing, err := s.columnNames(ctx, "sessions")
	if err != nil {
		return err
	}
	for _, col := range []string{"created_at", "updated_at", "end_reason"} {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE sessions ADD COLUMN %s TEXT`, col)); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT,
		content TEXT,
		timestamp TEXT,
		time_delta REAL
	)`); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (s *SQLite) columnNames(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]struct{}{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info row: %w", err)
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

func (s *SQLite) InsertSession(ctx context.Context, name string, data *string, now string, endReason *string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (name, data, created_at, updated_at, end_reason) VALUES (?, ?, ?, ?, ?)`,
		name, data, now, now, endReason)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert session id: %w", err)
	}
	return id, nil
}

func (s *SQLite) UpdateSession(ctx context.Context, id int64, name string, data *string, now string, endReason *string) error {
	var err error
	if endReason != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET name=?, data=COALESCE(?, data), updated_at=?, end_reason=? WHERE id=?`,
			name, data, now, *endReason, id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET name=?, data=COALESCE(?, data), updated_at=? WHERE id=?`,
			name, data, now, id)
	}
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) FindSessionByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sessions WHERE name=?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find session by name: %w", err)
	}
	return id, true, nil
}

func (s *SQLite) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(created_at, ''), COALESCE(updated_at, '') FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *SQLite) LoadSession(ctx context.Context, id int64) (string, error) {
	var data sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id=?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session %d: %w", id, err)
	}
	return data.String, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) LastMessageTimestamp(ctx context.Context, sessionID int64) (string, bool, error) {
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT timestamp FROM messages WHERE session_id=? ORDER BY id DESC LIMIT 1`, sessionID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last message timestamp: %w", err)
	}
	return ts, true, nil
}

func (s *SQLite) InsertMessage(ctx context.Context, sessionID int64, role, content, timestamp string, timeDelta *float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, time_delta) VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, timestamp, timeDelta)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert message id: %w", err)
	}
	return id, nil
}

func (s *SQLite) ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp, time_delta FROM messages WHERE session_id=? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var delta sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp, &delta); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		if delta.Valid {
			d := delta.Float64
			m.TimeDelta = &d
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
