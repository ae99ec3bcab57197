package domain

// SessionWriteRecord describes one attempted session write, durable or not.
// One record is appended per upsert regardless of the path taken.
type SessionWriteRecord struct {
	SessionID     string  `json:"session_id"`
	SessionIDType string  `json:"session_id_type"`
	Name          string  `json:"name"`
	UpdatedAt     string  `json:"updated_at"`
	Data          *string `json:"data"`
	EndReason     *string `json:"end_reason"`
}

// MessageSnapshotRecord is the full ordered transcript of a session at the
// moment a message was logged. Snapshots supersede each other: the latest one
// for a session id is the authoritative journal view of its transcript.
type MessageSnapshotRecord struct {
	SessionID     string    `json:"session_id"`
	Messages      []Message `json:"messages"`
	LastMessageID string    `json:"last_message_id"`
	MessageIDType string    `json:"message_id_type"`
}

// Journal is the append-only debug record sink. It is observability, never a
// correctness dependency: callers log append failures and move on. LastSnapshot
// exists for the skip-persistence read path, which sources transcripts from the
// most recent snapshot instead of the store.
type Journal interface {
	Append(record any) error
	LastSnapshot(sessionID string) (*MessageSnapshotRecord, bool, error)
}
