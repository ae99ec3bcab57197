package domain

import (
	"errors"
	"strconv"
)

var (
	// ErrNotFound is returned when a session id does not resolve against the store.
	ErrNotFound = errors.New("session not found")
	// ErrMissingSessionID signals a caller contract violation: a message can
	// never be logged without a session id. Unlike store failures this is not
	// recovered with a synthetic identifier.
	ErrMissingSessionID = errors.New("log message called without a session id")
	// ErrPersistenceDisabled is returned by read operations that need the
	// durable store while the process runs in skip-persistence mode.
	ErrPersistenceDisabled = errors.New("persistence is disabled")
)

// IDKind tags an identifier as durable ("db", a store row id) or ephemeral
// ("uuid", a locally generated token that is not resolvable against the store).
// The two are not interchangeable; callers must track which kind they hold.
type IDKind string

const (
	IDPersisted IDKind = "db"
	IDEphemeral IDKind = "uuid"
)

// SessionID identifies a conversation record. The zero value means "no session".
type SessionID struct {
	Kind  IDKind
	Row   int64  // store row id, set for IDPersisted
	Token string // synthetic token, set for IDEphemeral
}

func PersistedSessionID(row int64) SessionID {
	return SessionID{Kind: IDPersisted, Row: row}
}

func EphemeralSessionID(token string) SessionID {
	return SessionID{Kind: IDEphemeral, Token: token}
}

func (id SessionID) IsZero() bool {
	return id.Kind == ""
}

// String renders the id the way it appears in journal records: the decimal row
// id for persisted sessions, the raw token otherwise.
func (id SessionID) String() string {
	if id.Kind == IDPersisted {
		return strconv.FormatInt(id.Row, 10)
	}
	return id.Token
}

// MessageID identifies one logged message, durable or synthetic.
type MessageID struct {
	Kind  IDKind
	Row   int64
	Token string
}

func PersistedMessageID(row int64) MessageID {
	return MessageID{Kind: IDPersisted, Row: row}
}

func EphemeralMessageID(token string) MessageID {
	return MessageID{Kind: IDEphemeral, Token: token}
}

func (id MessageID) String() string {
	if id.Kind == IDPersisted {
		return strconv.FormatInt(id.Row, 10)
	}
	return id.Token
}

// SessionSummary is one row of the session listing, newest update first.
type SessionSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Message is one immutable transcript turn. TimeDelta is the elapsed seconds
// since the previous message of the same session in insertion order, nil for
// the first message.
type Message struct {
	ID        int64    `json:"id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	TimeDelta *float64 `json:"time_delta"`
}
