package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LogFile is the daemon's diagnostic log: an append-only file that can be
// rotated to a single ".old" backup while the daemon keeps writing.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenLogFile opens (or creates) the log at path.
func OpenLogFile(path string) (*LogFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &LogFile{path: path, file: file}, nil
}

// Path returns the log file path.
func (l *LogFile) Path() string {
	return l.path
}

// Write implements io.Writer.
func (l *LogFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return 0, os.ErrClosed
	}
	return l.file.Write(p)
}

// RotateIfLarger moves the log to path+".old" once it reaches maxBytes and
// starts a fresh file. It reports whether a rotation happened. maxBytes <= 0
// disables rotation.
func (l *LogFile) RotateIfLarger(maxBytes int64) (bool, error) {
	if maxBytes <= 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return false, nil
	}

	info, err := l.file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < maxBytes {
		return false, nil
	}

	l.file.Close()
	backup := l.path + ".old"
	os.Remove(backup)
	if err := os.Rename(l.path, backup); err != nil {
		// Keep logging to the original file rather than losing output.
		l.file, _ = os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		return false, err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.file = nil
		return true, err
	}
	l.file = file
	return true, nil
}

// Close closes the log file.
func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
