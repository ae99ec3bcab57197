package domain

import "context"

// SessionStore is the relational store adapter over the sessions and messages
// tables. Implementations must make Init safe to call on every process start
// and must enforce cascade delete from a session to its messages.
//
// Timestamps cross this boundary as ISO-8601 text; the store never computes
// them itself.
type SessionStore interface {
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	InsertSession(ctx context.Context, name string, data *string, now string, endReason *string) (int64, error)
	// UpdateSession coalesces data: a nil blob keeps the stored value.
	UpdateSession(ctx context.Context, id int64, name string, data *string, now string, endReason *string) error
	FindSessionByName(ctx context.Context, name string) (int64, bool, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	LoadSession(ctx context.Context, id int64) (string, error)
	DeleteSession(ctx context.Context, id int64) error

	// LastMessageTimestamp returns the timestamp of the most recently inserted
	// message for the session, by insertion id rather than wall clock.
	LastMessageTimestamp(ctx context.Context, sessionID int64) (string, bool, error)
	InsertMessage(ctx context.Context, sessionID int64, role, content, timestamp string, timeDelta *float64) (int64, error)
	ListMessages(ctx context.Context, sessionID int64) ([]Message, error)
}
