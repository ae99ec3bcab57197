package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradipta/geminichat/domain"
)

func newTestJournal(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)
	return f
}

func TestLastSnapshotMissingFile(t *testing.T) {
	f := newTestJournal(t)

	_, found, err := f.LastSnapshot("42")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLastSnapshotKeepsLatestMatch(t *testing.T) {
	f := newTestJournal(t)

	require.NoError(t, f.Append(domain.MessageSnapshotRecord{
		SessionID:     "42",
		Messages:      []domain.Message{{ID: 1, Role: "user", Content: "old"}},
		LastMessageID: "1",
		MessageIDType: "db",
	}))
	require.NoError(t, f.Append(domain.MessageSnapshotRecord{
		SessionID:     "7",
		Messages:      []domain.Message{{ID: 9, Role: "user", Content: "other session"}},
		LastMessageID: "9",
		MessageIDType: "db",
	}))
	require.NoError(t, f.Append(domain.MessageSnapshotRecord{
		SessionID: "42",
		Messages: []domain.Message{
			{ID: 1, Role: "user", Content: "old"},
			{ID: 2, Role: "assistant", Content: "new"},
		},
		LastMessageID: "2",
		MessageIDType: "db",
	}))

	snap, found, err := f.LastSnapshot("42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2", snap.LastMessageID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "new", snap.Messages[1].Content)
}

func TestLastSnapshotSkipsSessionWriteRecords(t *testing.T) {
	f := newTestJournal(t)

	// Session-write records share the file but are not snapshots.
	require.NoError(t, f.Append(domain.SessionWriteRecord{
		SessionID:     "42",
		SessionIDType: "db",
		Name:          "quest",
		UpdatedAt:     "2025-08-01T10:00:00.000000Z",
	}))

	_, found, err := f.LastSnapshot("42")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, f.Append(domain.MessageSnapshotRecord{
		SessionID:     "42",
		Messages:      []domain.Message{{ID: 1, Role: "user", Content: "hi"}},
		LastMessageID: "1",
		MessageIDType: "db",
	}))

	snap, found, err := f.LastSnapshot("42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1", snap.LastMessageID)
}
