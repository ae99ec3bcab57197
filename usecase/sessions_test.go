package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pradipta/geminichat/adapters/journal"
	"github.com/pradipta/geminichat/adapters/store"
	"github.com/pradipta/geminichat/domain"
)

func newTestService(t *testing.T) *SessionService {
	t.Helper()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jr, err := journal.NewFile(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)

	svc := NewSessionService(st, jr, zap.NewNop())
	require.NoError(t, svc.EnsureSchema(context.Background()))
	return svc
}

func strPtr(s string) *string { return &s }

func TestUpsertSessionIdempotentByName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := svc.UpsertSession(ctx, "quest", strPtr(`{"v":1}`), domain.SessionID{}, nil, false)
	second := svc.UpsertSession(ctx, "quest", strPtr(`{"v":2}`), domain.SessionID{}, nil, false)

	assert.Equal(t, domain.IDPersisted, first.Kind)
	assert.Equal(t, first.Row, second.Row)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "quest", sessions[0].Name)
}

func TestUpsertSessionCoalescesNilData(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "quest", strPtr(`{"v":1}`), domain.SessionID{}, nil, false)
	require.Equal(t, domain.IDPersisted, id.Kind)

	svc.UpsertSession(ctx, "quest", nil, id, nil, false)
	data, err := svc.LoadSession(ctx, id.Row)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, data)

	svc.UpsertSession(ctx, "quest", strPtr(`{"v":3}`), id, nil, false)
	data, err = svc.LoadSession(ctx, id.Row)
	require.NoError(t, err)
	assert.Equal(t, `{"v":3}`, data)
}

func TestUpsertSessionSkipPersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "ephemeral", strPtr(`{}`), domain.SessionID{}, nil, true)
	assert.Equal(t, domain.IDEphemeral, id.Kind)
	assert.NotEmpty(t, id.Token)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// A known ephemeral id is kept across further skip-persist upserts.
	again := svc.UpsertSession(ctx, "ephemeral", nil, id, nil, true)
	assert.Equal(t, id, again)
}

func TestUpsertSessionEndReason(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "done", strPtr(`{}`), domain.SessionID{}, nil, false)
	svc.UpsertSession(ctx, "done", nil, id, strPtr("completed"), false)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestLogMessageTimeDelta(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	offset := time.Duration(0)
	svc.now = func() time.Time { return base.Add(offset) }

	id := svc.UpsertSession(ctx, "timing", strPtr(`{}`), domain.SessionID{}, nil, false)

	_, err := svc.LogMessage(ctx, id, domain.RoleUser, "first", false)
	require.NoError(t, err)

	offset = 2 * time.Second
	_, err = svc.LogMessage(ctx, id, domain.RoleAssistant, "second", false)
	require.NoError(t, err)

	offset = 5 * time.Second
	_, err = svc.LogMessage(ctx, id, domain.RoleUser, "third", false)
	require.NoError(t, err)

	messages, err := svc.SessionMessages(ctx, id, false)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Nil(t, messages[0].TimeDelta)
	require.NotNil(t, messages[1].TimeDelta)
	assert.InDelta(t, 2.0, *messages[1].TimeDelta, 0.001)
	require.NotNil(t, messages[2].TimeDelta)
	assert.InDelta(t, 3.0, *messages[2].TimeDelta, 0.001)
}

func TestLogMessageMissingSessionID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.LogMessage(context.Background(), domain.SessionID{}, domain.RoleUser, "hi", false)
	assert.ErrorIs(t, err, domain.ErrMissingSessionID)
}

func TestLogMessageSkipPersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "ephemeral", nil, domain.SessionID{}, nil, true)
	msgID, err := svc.LogMessage(ctx, id, domain.RoleUser, "hi", true)
	require.NoError(t, err)
	assert.Equal(t, domain.IDEphemeral, msgID.Kind)
	assert.NotEmpty(t, msgID.Token)
}

func TestDeleteSessionCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "doomed", strPtr(`{}`), domain.SessionID{}, nil, false)
	_, err := svc.LogMessage(ctx, id, domain.RoleUser, "one", false)
	require.NoError(t, err)
	_, err = svc.LogMessage(ctx, id, domain.RoleAssistant, "two", false)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, id.Row))

	_, err = svc.LoadSession(ctx, id.Row)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	messages, err := svc.SessionMessages(ctx, id, false)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSessionMessagesFromJournalSnapshot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := svc.UpsertSession(ctx, "snapshotted", strPtr(`{}`), domain.SessionID{}, nil, false)
	_, err := svc.LogMessage(ctx, id, domain.RoleUser, "hello", false)
	require.NoError(t, err)
	_, err = svc.LogMessage(ctx, id, domain.RoleAssistant, "hi!", false)
	require.NoError(t, err)

	// The skip-persist read path sources the transcript from the most recent
	// journal snapshot instead of the store.
	messages, err := svc.SessionMessages(ctx, id, true)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, "hi!", messages[1].Content)
}

func TestSessionMessagesUnknownEphemeralSession(t *testing.T) {
	svc := newTestService(t)

	messages, err := svc.SessionMessages(context.Background(), domain.EphemeralSessionID("nope"), true)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListSessionsNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	offset := time.Duration(0)
	svc.now = func() time.Time { return base.Add(offset) }

	a := svc.UpsertSession(ctx, "alpha", strPtr(`{}`), domain.SessionID{}, nil, false)
	offset = time.Second
	svc.UpsertSession(ctx, "beta", strPtr(`{}`), domain.SessionID{}, nil, false)
	offset = 2 * time.Second
	svc.UpsertSession(ctx, "alpha", nil, a, nil, false)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "alpha", sessions[0].Name)
	assert.Equal(t, "beta", sessions[1].Name)
}
