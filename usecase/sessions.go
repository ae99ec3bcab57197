package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pradipta/geminichat/domain"
)

// timestampLayout is fixed width so the stored ISO-8601 text sorts
// chronologically under the store's lexicographic ORDER BY.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// SessionService owns the session and message lifecycle: upserts, transcript
// logging with inter-message timing, and the write-through to the debug
// journal. It degrades rather than fails: store write errors after startup are
// recovered with a synthetic identifier so the caller's chat flow continues.
//
// The service assumes at most one writer per session. Two processes upserting
// the same named session race; last write wins.
type SessionService struct {
	store   domain.SessionStore // nil when persistence is disabled for the process
	journal domain.Journal
	log     *zap.Logger
	now     func() time.Time
}

func NewSessionService(store domain.SessionStore, journal domain.Journal, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:   store,
		journal: journal,
		log:     logger,
		now:     time.Now,
	}
}

// EnsureSchema brings the store schema up to date. Idempotent; called on every
// process start. Connectivity failures here are fatal to the caller.
func (s *SessionService) EnsureSchema(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Init(ctx)
}

// UpsertSession creates or updates a session record and returns its id, which
// callers must keep for the rest of the conversation.
//
// With skipPersist and no known id, a synthetic id is generated and the store
// is never touched. Otherwise a known persisted id is updated in place, a
// missing id is resolved by exact name match, and an unmatched name inserts a
// new row. A nil data blob keeps the stored one (there is deliberately no way
// to clear it). Store write failures are logged and recovered with a synthetic
// id so the caller can continue.
//
// Every path appends one session-write record to the journal; journal failures
// are logged and ignored.
func (s *SessionService) UpsertSession(ctx context.Context, name string, data *string, id domain.SessionID, endReason *string, skipPersist bool) domain.SessionID {
	now := s.now().Format(timestampLayout)

	if skipPersist && id.IsZero() {
		id = domain.EphemeralSessionID(uuid.NewString())
	}

	if !skipPersist {
		if newID, err := s.writeSession(ctx, name, data, id, now, endReason); err != nil {
			s.log.Error("failed to save session", zap.String("name", name), zap.Error(err))
			if id.IsZero() {
				id = domain.EphemeralSessionID(uuid.NewString())
			}
		} else {
			id = newID
		}
	} else {
		s.log.Debug("skipping database save for session", zap.String("name", name))
	}

	rec := domain.SessionWriteRecord{
		SessionID:     id.String(),
		SessionIDType: string(id.Kind),
		Name:          name,
		UpdatedAt:     now,
		Data:          data,
		EndReason:     endReason,
	}
	if err := s.journal.Append(rec); err != nil {
		s.log.Warn("failed to append session record to journal", zap.Error(err))
	}
	return id
}

func (s *SessionService) writeSession(ctx context.Context, name string, data *string, id domain.SessionID, now string, endReason *string) (domain.SessionID, error) {
	if id.Kind == domain.IDEphemeral {
		// An ephemeral id never resolves against the store; keep it and let
		// the caller continue, same as any other non-durable outcome.
		return id, nil
	}
	if id.Kind == domain.IDPersisted {
		if err := s.store.UpdateSession(ctx, id.Row, name, data, now, endReason); err != nil {
			return id, err
		}
		return id, nil
	}

	row, found, err := s.store.FindSessionByName(ctx, name)
	if err != nil {
		return id, err
	}
	if found {
		if err := s.store.UpdateSession(ctx, row, name, data, now, endReason); err != nil {
			return id, err
		}
		return domain.PersistedSessionID(row), nil
	}

	row, err = s.store.InsertSession(ctx, name, data, now, endReason)
	if err != nil {
		return id, err
	}
	return domain.PersistedSessionID(row), nil
}

func (s *SessionService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	if s.store == nil {
		return nil, domain.ErrPersistenceDisabled
	}
	return s.store.ListSessions(ctx)
}

func (s *SessionService) LoadSession(ctx context.Context, id int64) (string, error) {
	if s.store == nil {
		return "", domain.ErrPersistenceDisabled
	}
	return s.store.LoadSession(ctx, id)
}

// DeleteSession removes a session and, through the store's cascade, every
// message belonging to it.
func (s *SessionService) DeleteSession(ctx context.Context, id int64) error {
	if s.store == nil {
		return domain.ErrPersistenceDisabled
	}
	return s.store.DeleteSession(ctx, id)
}

// LogMessage records one transcript turn. A zero session id is a programming
// error in the caller and returns domain.ErrMissingSessionID before anything
// else happens; every other failure is recovered.
//
// time_delta is computed against the most recently inserted message for the
// session at insert time and never recomputed. There is no transaction around
// the read and the insert; a crash in between can cost one delta, which is an
// accepted approximation.
//
// Both the persisted and the skip branch finish by journaling a full ordered
// snapshot of the session's messages, superseding earlier snapshots.
func (s *SessionService) LogMessage(ctx context.Context, id domain.SessionID, role, content string, skipPersist bool) (domain.MessageID, error) {
	if id.IsZero() {
		return domain.MessageID{}, domain.ErrMissingSessionID
	}

	var msgID domain.MessageID
	if !skipPersist && id.Kind == domain.IDPersisted && s.store != nil {
		rowID, err := s.insertMessage(ctx, id.Row, role, content)
		if err != nil {
			s.log.Error("failed to log message to database", zap.Int64("session_id", id.Row), zap.Error(err))
			msgID = domain.EphemeralMessageID(uuid.NewString())
		} else {
			msgID = domain.PersistedMessageID(rowID)
		}
	} else {
		s.log.Debug("skipping database log for message", zap.String("session_id", id.String()))
		msgID = domain.EphemeralMessageID(uuid.NewString())
	}

	messages, err := s.SessionMessages(ctx, id, skipPersist)
	if err != nil {
		s.log.Warn("failed to read messages for journal snapshot", zap.String("session_id", id.String()), zap.Error(err))
		messages = nil
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	snap := domain.MessageSnapshotRecord{
		SessionID:     id.String(),
		Messages:      messages,
		LastMessageID: msgID.String(),
		MessageIDType: string(msgID.Kind),
	}
	if err := s.journal.Append(snap); err != nil {
		s.log.Warn("failed to append message snapshot to journal", zap.Error(err))
	}
	return msgID, nil
}

func (s *SessionService) insertMessage(ctx context.Context, sessionID int64, role, content string) (int64, error) {
	now := s.now()
	ts := now.Format(timestampLayout)

	var delta *float64
	lastTS, found, err := s.store.LastMessageTimestamp(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if found {
		last, parseErr := time.Parse(timestampLayout, lastTS)
		if parseErr != nil {
			return 0, parseErr
		}
		d := now.Sub(last).Seconds()
		delta = &d
	}
	return s.store.InsertMessage(ctx, sessionID, role, content, ts, delta)
}

// SessionMessages returns the ordered transcript. With skipPersist it is
// sourced from the most recent journal snapshot for the session instead of the
// store, so ephemeral sessions can still render their history.
func (s *SessionService) SessionMessages(ctx context.Context, id domain.SessionID, skipPersist bool) ([]domain.Message, error) {
	if skipPersist {
		snap, ok, err := s.journal.LastSnapshot(id.String())
		if err != nil {
			return nil, err
		}
		if !ok {
			return []domain.Message{}, nil
		}
		return snap.Messages, nil
	}
	if id.Kind != domain.IDPersisted {
		return []domain.Message{}, nil
	}
	if s.store == nil {
		return nil, domain.ErrPersistenceDisabled
	}
	return s.store.ListMessages(ctx, id.Row)
}
