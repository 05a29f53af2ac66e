package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ReasoningLogger persists reasoner provider chain-of-thought output to disk
// for later inspection. Failures to write are non-fatal: a broken log
// directory should never fail a dispatch.
type ReasoningLogger struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	ensured bool
}

func NewReasoningLogger(dir string) *ReasoningLogger {
	return &ReasoningLogger{dir: dir, now: time.Now}
}

// Log writes content to a new dated file under the logger's directory,
// creating the directory on first use. It returns the path written and a
// warning-level error; callers should log and continue on error, never
// abort the dispatch that produced content.
func (l *ReasoningLogger) Log(provider, requestID, content string) (string, error) {
	if l == nil || l.dir == "" {
		return "", nil
	}

	if err := l.ensureDir(); err != nil {
		return "", fmt.Errorf("reasoning log: ensure dir: %w", err)
	}

	name := fmt.Sprintf("reasoning_%s.md", l.now().Format("20060102_150405"))
	if requestID != "" {
		name = fmt.Sprintf("reasoning_%s_%s.md", l.now().Format("20060102_150405"), requestID)
	}
	path := filepath.Join(l.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("reasoning log: open: %w", err)
	}
	defer f.Close()

	header := fmt.Sprintf("# Reasoning Log\n\n**Timestamp:** %s\n**Length:** %d chars\n**Provider:** %s\n**Request:** %s\n\n## Chain-of-Thought\n\n",
		l.now().Format(time.RFC3339), len(content), provider, requestID)
	if _, err := f.WriteString(header); err != nil {
		return path, fmt.Errorf("reasoning log: write header: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		return path, fmt.Errorf("reasoning log: write content: %w", err)
	}
	return path, nil
}

func (l *ReasoningLogger) ensureDir() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ensured {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	l.ensured = true
	return nil
}
