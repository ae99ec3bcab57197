package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pradipta/geminichat/domain"
)

// Postgres implements domain.SessionStore over PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

// Init creates the two tables and applies the additive column migration for
// rows created under the old schema. Every statement is a no-op when the
// schema already matches, so this runs on every process start.
func (s *Postgres) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
		id SERIAL PRIMARY KEY,
		name TEXT,
		data TEXT,
		created_at TEXT,
		updated_at TEXT,
		end_reason TEXT
	)`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	for _, col := range []string{"created_at", "updated_at", "end_reason"} {
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM information_schema.columns WHERE table_name='sessions' AND column_name=$1`,
			col).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE sessions ADD COLUMN %s TEXT`, col)); err != nil {
				return fmt.Errorf("add column %s: %w", col, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("inspect sessions schema: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS messages (
		id SERIAL PRIMARY KEY,
		session_id INTEGER REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT,
		content TEXT,
		timestamp TEXT,
		time_delta DOUBLE PRECISION
	)`); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (s *Postgres) InsertSession(ctx context.Context, name string, data *string, now string, endReason *string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO sessions (name, data, created_at, updated_at, end_reason) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, data, now, now, endReason).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (s *Postgres) UpdateSession(ctx context.Context, id int64, name string, data *string, now string, endReason *string) error {
	var err error
	if endReason != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET name=$1, data=COALESCE($2, data), updated_at=$3, end_reason=$4 WHERE id=$5`,
			name, data, now, *endReason, id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET name=$1, data=COALESCE($2, data), updated_at=$3 WHERE id=$4`,
			name, data, now, id)
	}
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	return nil
}

func (s *Postgres) FindSessionByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM sessions WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find session by name: %w", err)
	}
	return id, true, nil
}

func (s *Postgres) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
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

func (s *Postgres) LoadSession(ctx context.Context, id int64) (string, error) {
	var data sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session %d: %w", id, err)
	}
	return data.String, nil
}

func (s *Postgres) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

func (s *Postgres) LastMessageTimestamp(ctx context.Context, sessionID int64) (string, bool, error) {
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT timestamp FROM messages WHERE session_id=$1 ORDER BY id DESC LIMIT 1`, sessionID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last message timestamp: %w", err)
	}
	return ts, true, nil
}

func (s *Postgres) InsertMessage(ctx context.Context, sessionID int64, role, content, timestamp string, timeDelta *float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, time_delta) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sessionID, role, content, timestamp, timeDelta).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

func (s *Postgres) ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp, time_delta FROM messages WHERE session_id=$1 ORDER BY id ASC`, sessionID)
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
