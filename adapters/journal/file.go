package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pradipta/geminichat/domain"
)

// File is an append-only JSONL sink, one record per line. It is the debug
// journal: a side channel for offline inspection, never the system of record.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) Append(record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal record: %w", err)
	}
	return nil
}

// LastSnapshot scans the journal for the most recent message snapshot of the
// given session. Session-write records share the file; they are recognized by
// the absence of a last_message_id and skipped.
func (f *File) LastSnapshot(sessionID string) (*domain.MessageSnapshotRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var found *domain.MessageSnapshotRecord
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var rec struct {
				domain.MessageSnapshotRecord
				LastMessageID *string `json:"last_message_id"`
			}
			if jsonErr := json.Unmarshal(line, &rec); jsonErr == nil &&
				rec.LastMessageID != nil && rec.SessionID == sessionID {
				snap := rec.MessageSnapshotRecord
				snap.LastMessageID = *rec.LastMessageID
				found = &snap
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("read journal: %w", err)
		}
	}
	return found, found != nil, nil
}
