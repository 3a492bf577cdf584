package services

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FileAuditLogger appends security screening decisions to a JSONL file,
// one event per line. It is the Go counterpart of the original system's
// security log table.
type FileAuditLogger struct {
	mu   sync.Mutex
	path string
}

// NewFileAuditLogger creates a logger writing to the given path. The file
// is created lazily on first write.
func NewFileAuditLogger(path string) *FileAuditLogger {
	return &FileAuditLogger{path: path}
}

// Log appends one event. Errors are returned so the caller can note them,
// but the Guard treats the write as best-effort either way.
func (l *FileAuditLogger) Log(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	record := struct {
		Timestamp time.Time `json:"timestamp"`
		AuditEvent
	}{Timestamp: time.Now().UTC(), AuditEvent: event}

	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}
