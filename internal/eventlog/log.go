package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/logging"
	"github.com/manav03panchal/alarmd/internal/model"
)

// Log appends entries to the event log file. It holds the file lock for as
// long as it is open. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
	lock *FileLock
	now  func() time.Time
}

// Open creates parent directories, takes the lock and opens path for
// appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewSystemErrorWithOp("open event log", "cannot create state directory", err)
	}

	lock := NewFileLock(path)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lock.Release()
		return nil, apperrors.NewSystemErrorWithOp("open event log", "cannot open "+path, err)
	}

	logging.DebugLog("event log opened", logging.KeyPath, path)
	return &Log{path: path, file: file, lock: lock, now: time.Now}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Scheduled records that a was accepted.
func (l *Log) Scheduled(a *model.Alarm) error {
	return l.Append(NewEntry(KindScheduled, a, l.now()))
}

// Cancelled records that a was cancelled by the user.
func (l *Log) Cancelled(a *model.Alarm) error {
	return l.Append(NewEntry(KindCancelled, a, l.now()))
}

// Append writes e as one line and syncs it to disk.
func (l *Log) Append(e Entry) error {
	line := e.String() + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("event log %s is closed", l.path)
	}
	if _, err := l.file.WriteString(line); err != nil {
		return apperrors.NewSystemErrorWithOp("event log append", "write failed", err)
	}
	if err := l.file.Sync(); err != nil {
		return apperrors.NewSystemErrorWithOp("event log append", "sync failed", err)
	}
	return nil
}

// Close closes the file and releases the lock. Closing twice is harmless.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if lerr := l.lock.Release(); err == nil {
		err = lerr
	}
	return err
}
